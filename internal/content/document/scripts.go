package document

import (
	"path/filepath"
	"strings"
)

// extractScripts pulls the script sources out of a document. HTML
// documents contribute the body of each <script> element, in order;
// anything else is treated as a single bare script. Script elements
// with a src attribute are skipped (external script fetching is the
// same non-goal as remote documents).
func extractScripts(path, data string) []string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
	default:
		return []string{data}
	}

	var scripts []string
	lower := strings.ToLower(data)
	pos := 0
	for {
		open := strings.Index(lower[pos:], "<script")
		if open < 0 {
			break
		}
		open += pos
		openEnd := strings.IndexByte(lower[open:], '>')
		if openEnd < 0 {
			break
		}
		openEnd += open + 1
		closeTag := strings.Index(lower[openEnd:], "</script>")
		if closeTag < 0 {
			break
		}
		closeTag += openEnd
		tag := lower[open:openEnd]
		if !strings.Contains(tag, " src") {
			if body := strings.TrimSpace(data[openEnd:closeTag]); body != "" {
				scripts = append(scripts, body)
			}
		}
		pos = closeTag + len("</script>")
	}
	return scripts
}
