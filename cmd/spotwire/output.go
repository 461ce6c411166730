package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"spotwire/pkg/core"
	"spotwire/pkg/exchange/binance"
)

// printResult writes the decoded body as indented JSON with sorted keys.
func printResult(w io.Writer, res *core.Result) error {
	if res.Value == nil {
		_, err := fmt.Fprintln(w, "{}")
		return err
	}
	out, err := sonic.ConfigStd.MarshalIndent(res.Value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func renderCatalog(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("ENDPOINT CATALOG")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Operation", "Method", "Path", "Signed", "Weight"})

	for _, op := range core.Operations() {
		ep, _ := core.Lookup(op)
		signed := "no"
		if ep.Signed {
			signed = "yes"
		}
		t.AppendRow(table.Row{op.String(), ep.Method, ep.Path, signed, ep.Weight})
	}

	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 4, Align: text.AlignCenter},
		{Number: 5, Align: text.AlignRight},
	})
	t.Render()
}

func renderBalances(w io.Writer, balances []binance.Balance) error {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("BALANCES")
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Asset", "Free", "Locked", "Total"})

	for i := range balances {
		b := &balances[i]
		total, err := b.Total()
		if err != nil {
			return fmt.Errorf("total %s: %w", b.Asset, err)
		}
		t.AppendRow(table.Row{b.Asset, b.Free.Text('f'), b.Locked.Text('f'), total.Text('f')})
	}

	t.AppendFooter(table.Row{"", "", "Assets", strconv.Itoa(len(balances))})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	t.Render()
	return nil
}
