package nodelink_test

import (
	"fmt"
	"strings"

	"github.com/matzehuels/stacklineage/pkg/lineage"
	"github.com/matzehuels/stacklineage/pkg/render/nodelink"
	"github.com/matzehuels/stacklineage/pkg/view"
)

func ExampleToDOT() {
	b := lineage.NewBuilder()
	_ = b.Job("load", lineage.Job{Name: "load"})
	_ = b.Dataset("orders", lineage.Dataset{Name: "orders"})
	_ = b.Edge("load", "orders")

	dot := nodelink.ToDOT(view.Build(b.Graph(), view.DefaultOptions("orders")), nodelink.Options{})

	for _, line := range strings.Split(dot, "\n") {
		if strings.Contains(line, "->") {
			fmt.Println(strings.TrimSpace(line))
		}
	}
	// Output:
	// "load" -> "orders" [id="load:orders", color="#1f6feb"];
}
