package tts

import (
	"context"
	"os"

	"github.com/charmbracelet/log"

	"github.com/MattGrayYes/MGTTS/tts/player"
	"github.com/MattGrayYes/MGTTS/tts/wav"
	"github.com/MattGrayYes/MGTTS/tts/wyoming"
)

// Options adjusts how a request is carried out.
type Options struct {
	// OutputPath, when set, saves the audio there instead of playing it.
	OutputPath string
}

// Controller wires the pipeline together: Wyoming client, WAV assembly,
// output dispatch. One controller performs one exchange at a time; nothing
// is shared between calls.
type Controller struct {
	logger *log.Logger

	// test seams, nil outside of tests
	synthesize func(ctx context.Context, req SynthesisRequest) (wav.Format, []byte, error)
	dispatcher *player.Dispatcher
}

// NewController creates a controller logging to logger (nil for stderr).
func NewController(logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	return &Controller{logger: logger}
}

// Speak runs the whole pipeline for one request: synthesize the text,
// assemble the WAV payload, deliver it. The flow is strictly linear with no
// retries; the first fatal error aborts with no partial output.
func (c *Controller) Speak(ctx context.Context, req SynthesisRequest, opts Options) (player.Outcome, error) {
	if err := req.Validate(); err != nil {
		return player.Outcome{}, stageErr(StageRequest, "", err)
	}

	format, pcm, err := c.doSynthesize(ctx, req)
	if err != nil {
		return player.Outcome{}, stageErr(StageSynth, req.Address(), err)
	}
	c.logger.Debug("synthesis complete",
		"pcm_bytes", len(pcm),
		"duration", format.Duration(len(pcm)))

	wavData, err := wav.Assemble(format, pcm)
	if err != nil {
		return player.Outcome{}, stageErr(StageAssemble, req.Address(), err)
	}

	d := c.dispatcher
	if d == nil {
		d = player.NewDispatcher(player.WithLogger(c.logger))
	}
	outcome, err := d.Deliver(ctx, wavData, opts.OutputPath)
	if err != nil {
		return player.Outcome{}, stageErr(StageOutput, req.Address(), err)
	}
	return outcome, nil
}

func (c *Controller) doSynthesize(ctx context.Context, req SynthesisRequest) (wav.Format, []byte, error) {
	if c.synthesize != nil {
		return c.synthesize(ctx, req)
	}
	client := wyoming.NewClient(req.Address(), wyoming.WithLogger(c.logger))
	return client.Synthesize(ctx, req.Text, req.Model, req.Speaker)
}
