package bootstrap

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

const banner = `     _                  _ _
 ___| |_ ___ _ __   ___(_) |
/ __| __/ _ \ '_ \ / __| | |
\__ \ ||  __/ | | | (__| | |
|___/\__\___|_| |_|\___|_|_|
`

// PrintBanner writes the tool banner to w.
func PrintBanner(w io.Writer) error {
	_, err := fmt.Fprint(w, color.HiCyanString(banner))
	return err
}
