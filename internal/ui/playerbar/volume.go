package playerbar

import (
	"fmt"

	"github.com/charmbracelet/x/ansi"

	"github.com/llehouerou/openspot/internal/ui/styles"
)

// Volume renders the volume indicator, e.g. "vol  80%" or "mute  80%".
func Volume(level float64, muted bool) string {
	label := "vol"
	if muted {
		label = "mute"
	}
	return styles.T().S().Muted.Render(fmt.Sprintf("%s %3d%%", label, int(level*100+0.5)))
}

func cells(s string) int {
	return ansi.StringWidth(s)
}
