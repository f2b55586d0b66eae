package layout_test

import (
	"fmt"

	"github.com/beepf/topoconsole/pkg/layout"
)

func ExampleConfigFor() {
	for _, m := range layout.Modes {
		cfg := layout.ConfigFor(m)
		fmt.Printf("%s: %s engine\n", cfg.Mode, cfg.Engine)
	}

	// Unknown modes fall back to the hierarchical layout.
	cfg := layout.ConfigFor("spiral")
	fmt.Println(cfg.Mode, cfg.RankDir, cfg.NodeSep, cfg.RankSep)
	// Output:
	// hierarchical: layered engine
	// force: force engine
	// map-centric: force engine
	// radial: radial engine
	// grid: grid engine
	// hierarchical LR 50 70
}
