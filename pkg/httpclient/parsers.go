// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package httpclient

import (
	"net/http"
	"strconv"
	"time"
)

// ParseRetryAfterHeader extracts rate limit info from the standard HTTP
// Retry-After response header (RFC 9110 §10.2.3), as either delta-seconds
// or an HTTP-date. This is the header a load-balanced Ollama deployment
// (several local workers behind an nginx/Caddy proxy) or Ollama itself
// under `OLLAMA_MAX_QUEUE` back-pressure would set; there is no
// requests-remaining/tokens-remaining counter convention to parse since
// that is vendor-specific to hosted model APIs, not local runtimes.
func ParseRetryAfterHeader(headers http.Header) RateLimitInfo {
	info := RateLimitInfo{}

	retryAfter := headers.Get("Retry-After")
	if retryAfter == "" {
		return info
	}

	if seconds, err := strconv.Atoi(retryAfter); err == nil {
		info.RetryAfter = time.Duration(seconds) * time.Second
		return info
	}

	if when, err := http.ParseTime(retryAfter); err == nil {
		if delay := time.Until(when); delay > 0 {
			info.RetryAfter = delay
		}
	}

	return info
}
