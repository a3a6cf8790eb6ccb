package session

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ollamabot/agentcore/pkg/apperrors"
)

// restoreScriptTemplate is the executable shell script written as
// restore.sh (spec §4.6/§6.5): it can list states, report status, and
// show the latest or a specific state, reading only the files Save
// already wrote — no dependency on this binary being present.
const restoreScriptTemplate = `#!/bin/sh
# Generated by SessionStore.Save; do not edit by hand.
# Usage: restore.sh [list|status|latest|<state_id>]
set -eu

cd "$(dirname "$0")"

cmd="${1:-status}"

case "$cmd" in
  list)
    ls states/*.state 2>/dev/null | sed 's#.*/##; s#\.state$##'
    ;;
  status)
    echo "session: %s"
    echo "flow code: $(cat flow.code 2>/dev/null || echo '')"
    echo "states: %d"
    ;;
  latest)
    state="%s"
    if [ -z "$state" ]; then
      echo "no states recorded" >&2
      exit 1
    fi
    cat "states/${state}.state"
    ;;
  *)
    if [ -f "states/${cmd}.state" ]; then
      cat "states/${cmd}.state"
    else
      echo "unknown state: ${cmd}" >&2
      exit 1
    fi
    ;;
esac
`

// writeRestoreScript renders and writes an executable restore.sh.
func writeRestoreScript(baseDir string, states []*State) error {
	latest := ""
	if len(states) > 0 {
		latest = states[len(states)-1].ID
	}
	script := fmt.Sprintf(restoreScriptTemplate, sessionIDPlaceholder(baseDir), len(states), latest)

	path := filepath.Join(baseDir, "restore.sh")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(script), 0755); err != nil {
		return apperrors.Wrap(apperrors.KindIO, "failed to write restore.sh", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return apperrors.Wrap(apperrors.KindIO, "failed to finalize restore.sh", err)
	}
	return nil
}

// sessionIDPlaceholder derives a display label for restore.sh's status
// output from the session's directory name, avoiding a second parameter
// threaded through from Save just for a label.
func sessionIDPlaceholder(baseDir string) string {
	return strings.TrimSuffix(filepath.Base(baseDir), "/")
}
