// ABOUTME: current_time tool reporting wall clock time, optionally per IANA zone

package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/mauromedda/nano-agent-go/pkg/tool"
)

type currentTimeArgs struct {
	Timezone string `json:"timezone,omitempty" desc:"IANA timezone name such as \"Asia/Shanghai\"; defaults to the local zone"`
}

// nowFunc is swapped in tests.
var nowFunc = time.Now

// RegisterCurrentTime adds the current_time tool to tk.
func RegisterCurrentTime(tk *tool.Toolkit) error {
	return tool.Register(tk, "current_time",
		"Get the current date and time, optionally in a specific timezone.",
		func(ctx context.Context, args currentTimeArgs) (tool.Response, error) {
			loc := time.Local
			if args.Timezone != "" {
				var err error
				loc, err = time.LoadLocation(args.Timezone)
				if err != nil {
					return tool.Response{}, fmt.Errorf("unknown timezone %q", args.Timezone)
				}
			}
			now := nowFunc().In(loc)
			return tool.Textf("%s (%s)", now.Format("2006-01-02 15:04:05"), now.Format("MST")), nil
		})
}
