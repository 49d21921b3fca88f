package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/talgya/dairy-sim/internal/engine"
	"github.com/talgya/dairy-sim/internal/scenario"
)

func money(v float64) string {
	if v < 0 {
		return "-$" + humanize.CommafWithDigits(-v, 0)
	}
	return "$" + humanize.CommafWithDigits(v, 0)
}

func printScenarios(w io.Writer, list []scenario.Params) {
	color.New(color.FgCyan, color.Bold).Fprintln(w, "\nStarting scenarios")
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"ID", "Region", "Farm", "Difficulty", "Hectares", "Cash", "Cattle", "Shed"}),
	)
	for _, p := range list {
		table.Append([]string{
			p.ID, p.Name, p.FarmName, p.Difficulty,
			humanize.Ftoa(p.FarmSizeHa),
			money(p.StartingCash),
			strconv.Itoa(p.StartingCattleCount),
			p.StartingInfrastructure.Shed,
		})
	}
	table.Render()
}

func printDays(w io.Writer, days []engine.DailyStats) {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Date", "Milk (L)", "Revenue", "Feed", "Upkeep", "Profit", "Cash", "Herd", "Health", "Grass"}),
	)
	var total float64
	for _, d := range days {
		total += d.Profit()
		table.Append([]string{
			d.Date,
			humanize.CommafWithDigits(d.MilkLitres, 0),
			money(d.Revenue),
			money(d.FeedCost),
			money(d.Maintenance),
			money(d.Profit()),
			money(d.Cash),
			strconv.Itoa(d.HerdSize),
			fmt.Sprintf("%.1f", d.AverageHealth),
			fmt.Sprintf("%.1f", d.MeanGrass),
		})
	}
	table.Render()

	c := color.New(color.FgGreen, color.Bold)
	if total < 0 {
		c = color.New(color.FgRed, color.Bold)
	}
	c.Fprintf(w, "Profit over %d days: %s\n", len(days), money(total))
}

func printFarm(w io.Writer, st engine.Snapshot) {
	color.New(color.FgCyan, color.Bold).Fprintf(w, "\n%s, %s\n", st.Farm.Name, engine.GameTime(st.Calendar.Time))

	summary := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Item", "Value"}))
	summary.Append([]string{"Cash", money(st.Resources.Cash)})
	summary.Append([]string{"Milk in vat", humanize.CommafWithDigits(st.Resources.Milk, 0) + " L"})
	summary.Append([]string{"Feed stored", humanize.CommafWithDigits(st.Resources.Feed, 0) + " / " +
		humanize.CommafWithDigits(st.Farm.StorageCapacity, 0) + " kg"})
	summary.Append([]string{"Herd", fmt.Sprintf("%d (%d lactating, %d pregnant, %d dry)",
		st.Herd.Total, st.Herd.Lactating, st.Herd.Pregnant, st.Herd.Dry)})
	summary.Append([]string{"Average health", fmt.Sprintf("%.1f", st.AverageHealth)})
	summary.Append([]string{"Shed", fmt.Sprintf("%s (capacity %d)", st.Farm.Shed.Name(), st.Farm.MilkingCapacity)})
	summary.Append([]string{"Daily running cost", money(st.Farm.DailyCost)})
	summary.Append([]string{"Weather", fmt.Sprintf("%s, %.1f°C", st.Weather.Conditions.Condition, st.Weather.Conditions.Temperature)})
	for _, c := range st.Contracts {
		if c.Active {
			summary.Append([]string{"Contract", c.Name})
		}
	}
	summary.Render()

	paddocks := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"Paddock", "Area (ha)", "Grass", "Soil", "Stock", "Fencing"}),
	)
	for _, p := range st.Pastures {
		paddocks.Append([]string{
			strconv.Itoa(p.ID),
			humanize.FtoaWithDigits(p.SizeHa, 1),
			fmt.Sprintf("%.0f", p.GrassLevel),
			fmt.Sprintf("%.0f", p.SoilFertility),
			fmt.Sprintf("%d/%d", p.CurrentStock, p.MaxStock),
			p.Fencing.Name(),
		})
	}
	paddocks.Render()
}
