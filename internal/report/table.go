package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"gemporter/internal/gems"
)

// PrintTable renders entries as a console table in the order given.
func PrintTable(w io.Writer, entries []gems.Entry) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Score", "Pop", "Track", "Artists", "Tier", "Bracket"})
	table.SetAutoWrapText(false)
	table.SetRowLine(false)

	rows := make([][]string, len(entries))
	for i, e := range entries {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			strconv.Itoa(e.Score()),
			strconv.Itoa(e.Track.Popularity),
			e.Track.Name,
			strings.Join(e.Track.ArtistNames(), ", "),
			gems.TierFor(e.Score()).String(),
			gems.BracketFor(e.Track.Popularity).String(),
		}
	}
	table.AppendBulk(rows)
	table.Render()
}
