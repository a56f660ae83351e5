package progress

import (
	"context"
	"fmt"
	"io"
	"time"

	pb "github.com/schollz/progressbar/v3"
)

type barKey struct{}

type barDest struct {
	w io.Writer
}

// Open marks ctx as wanting progress display on w. Contexts without
// it (tests, non-interactive runs) get no-op bars.
func Open(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, barKey{}, barDest{w})
}

type Bar struct {
	bar    *pb.ProgressBar
	prefix string
}

// Count starts a bar over total steps. The zero bar, returned when
// the context carries no destination, silently discards updates.
func Count(ctx context.Context, total int64, desc string) *Bar {
	h := ctx.Value(barKey{})
	if h == nil {
		return &Bar{}
	}

	dest := h.(barDest)

	bar := pb.NewOptions64(
		total,
		pb.OptionSetDescription(desc),
		pb.OptionSetWriter(dest.w),
		pb.OptionSetWidth(20),
		pb.OptionThrottle(65*time.Millisecond),
		pb.OptionShowCount(),
		pb.OptionSetTheme(
			pb.Theme{Saucer: "=", SaucerPadding: " ", BarStart: "[", BarEnd: "]"},
		),
		pb.OptionOnCompletion(func() {
			fmt.Fprint(dest.w, "\n")
		}),
		pb.OptionFullWidth(),
	)
	bar.RenderBlank()

	return &Bar{bar: bar, prefix: desc}
}

// On labels the step currently in flight.
func (b *Bar) On(step string) {
	if b.bar == nil {
		return
	}

	b.bar.Describe(b.prefix + ": " + step)
}

func (b *Bar) Tick() {
	if b.bar == nil {
		return
	}

	b.bar.Add64(1)
}

func (b *Bar) Close() {
	if b.bar == nil {
		return
	}

	b.bar.Close()
}
