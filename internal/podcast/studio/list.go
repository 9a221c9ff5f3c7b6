package studio

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"podcaster/internal/cli/scheme/colours"
	"podcaster/internal/domain/episode"
	"podcaster/internal/fileutil"
)

type fileRow struct {
	name     string
	size     string
	modified string
}

// List prints the audio and text files produced so far.
func (s *Studio) List(cmd *cobra.Command, args []string) error {
	fmt.Fprintln(s.out)
	colours.Title.Fprintln(s.out, "📚 Existing Podcast Episode Files")
	fmt.Fprintln(s.out)

	sections := []struct {
		label string
		dir   string
		match func(string) bool
	}{
		{"🎵 Audio Files", s.cfg.AudioDir, isAudio},
		{"📝 Text Files", s.cfg.TextDir, func(name string) bool { return strings.EqualFold(filepath.Ext(name), ".txt") }},
	}
	for _, sec := range sections {
		rows, err := listFiles(sec.dir, sec.match)
		if err != nil {
			return err
		}
		colours.Info.Fprintf(s.out, "%s (%s)\n", sec.label, sec.dir)
		if len(rows) == 0 {
			colours.Warning.Fprintln(s.out, "  No files found")
			fmt.Fprintln(s.out)
			continue
		}
		fmt.Fprintln(s.out, renderFiles(rows))
		fmt.Fprintln(s.out)
	}
	return nil
}

func isAudio(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".mp3", ".wav":
		return true
	}
	return false
}

func listFiles(dir string, match func(string) bool) ([]fileRow, error) {
	entries, err := fileutil.DirEntries(dir)
	if err != nil {
		return nil, episode.IO("list "+dir, err)
	}
	var rows []fileRow
	for _, e := range entries {
		if !match(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		rows = append(rows, fileRow{
			name:     e.Name(),
			size:     humanize.Bytes(uint64(info.Size())),
			modified: humanize.Time(info.ModTime()),
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].name < rows[j].name })
	return rows, nil
}

func renderFiles(rows []fileRow) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Name", "Size", "Modified"})
	for _, r := range rows {
		tw.AppendRow(table.Row{r.name, r.size, r.modified})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}
