package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/davecgh/go-spew/spew"
)

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	DisableMethods:          true,
	SortKeys:                true,
}

// Inspect dumps the parsed directives of every type whose identity matches filter.
// An empty filter matches all types. It returns the number of types written.
func Inspect(w io.Writer, report *Report, filter string) int {
	n := 0
	for _, td := range report.Types {
		if filter != "" && td.Identity != filter && !strings.HasSuffix(td.Identity, "/"+filter) {
			continue
		}
		fmt.Fprintf(w, "# %s\n", td.Identity)
		dumper.Fdump(w, td)
		n++
	}
	return n
}

