package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/FlavioCFOliveira/seqnet/internal/server"
	"github.com/FlavioCFOliveira/seqnet/internal/store"
)

type inspectOutput struct {
	Model    server.ModelInfo `json:"model"`
	Versions []store.Meta     `json:"versions,omitempty"`
}

func inspectCmd() *cli.Command {
	return &cli.Command{
		Name:  "inspect",
		Usage: "Show a model snapshot and its saved versions",
		Flags: append(commonModelFlags(), jsonFlag()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			applyModelConfig(cmd, cfg)

			var out inspectOutput
			if snapshotFile != "" {
				snap, err := store.LoadFile(snapshotFile)
				if err != nil {
					return err
				}
				out.Model = server.NewModelInfo(snap)
			} else {
				st, err := openStore(ctx)
				if err != nil {
					return err
				}
				defer st.Close()
				snap, err := fetchSnapshot(ctx, st)
				if err != nil {
					return err
				}
				out.Model = server.NewModelInfo(snap)
				if out.Versions, err = st.List(ctx, snap.Name); err != nil {
					return err
				}
			}

			w := outWriter(cmd)
			if jsonOutput {
				return printJSON(w, out)
			}

			m := out.Model
			tw := newTable(w)
			fmt.Fprintf(tw, "name\t%s\n", m.Name)
			fmt.Fprintf(tw, "id\t%s\n", m.ID)
			fmt.Fprintf(tw, "version\t%d\n", m.Version)
			fmt.Fprintf(tw, "kind\t%s\n", m.Kind)
			fmt.Fprintf(tw, "sizes\tin=%d hidden=%d out=%d\n", m.InSize, m.HiddenSize, m.OutSize)
			fmt.Fprintf(tw, "peephole\t%t\n", m.Peephole)
			fmt.Fprintf(tw, "activation\t%s\n", m.Activation)
			fmt.Fprintf(tw, "params\t%s\n", humanize.Comma(int64(m.Params)))
			fmt.Fprintf(tw, "created\t%s\n", humanize.Time(m.CreatedAt))
			if err := tw.Flush(); err != nil {
				return err
			}

			if len(out.Versions) == 0 {
				return nil
			}
			fmt.Fprintln(w)
			tw = newTable(w)
			fmt.Fprintln(tw, "VERSION\tID\tKIND\tCREATED")
			for _, v := range out.Versions {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", v.Version, v.ID, v.Kind, v.CreatedAt.Format("2006-01-02 15:04:05"))
			}
			return tw.Flush()
		},
	}
}
