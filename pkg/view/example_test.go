package view_test

import (
	"fmt"

	"github.com/matzehuels/stacklineage/pkg/lineage"
	"github.com/matzehuels/stacklineage/pkg/view"
)

func ExampleBuild() {
	b := lineage.NewBuilder()
	_ = b.Job("ingest", lineage.Job{Name: "ingest"})
	_ = b.Dataset("raw", lineage.Dataset{Name: "raw", Fields: []lineage.Field{{Name: "id"}, {Name: "ts"}}})
	_ = b.Job("clean", lineage.Job{Name: "clean"})
	_ = b.Edge("ingest", "raw")
	_ = b.Edge("raw", "clean")

	opts := view.DefaultOptions("raw")
	v := view.Build(b.Graph(), opts)
	for _, n := range v.Nodes {
		fmt.Printf("%s %s %.0fx%.0f\n", n.ID, n.Kind, n.Width, n.Height)
	}
	fmt.Println(v.EdgeIDs())

	opts.ShowDatasets = false
	fmt.Println(view.Build(b.Graph(), opts).EdgeIDs())
	// Output:
	// ingest JOB 112x24
	// raw DATASET 112x54
	// clean JOB 112x24
	// [ingest:raw raw:clean]
	// [ingest:clean]
}

func ExampleTextHeight() {
	fmt.Printf("%.1f\n", view.TextHeight("short", 80))
	fmt.Printf("%.1f\n", view.TextHeight("a_rather_long_dataset_name", 62))
	// Output:
	// 9.6
	// 28.8
}
