package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dyuri/dialface/internal/chrono"
	"github.com/dyuri/dialface/internal/config"
	"github.com/dyuri/dialface/internal/face"
	"github.com/dyuri/dialface/internal/hands"
	"github.com/dyuri/dialface/internal/lang"
	"github.com/dyuri/dialface/internal/model"
	"github.com/dyuri/dialface/internal/resource"
	"github.com/dyuri/dialface/internal/sched"
	"github.com/dyuri/dialface/internal/store"
	"github.com/dyuri/dialface/pkg/dialface"
)

// render command
var renderCmd = &cobra.Command{
	Use:   "render <face.txt> <pack>",
	Short: "Render a face at a given time to PNG",
	Long: `Render one frame of a face definition using the artwork in a
resource pack.

Config options come from --store when given and can be changed with
--set key=value; changes are persisted to the store like a settings
update from the phone.`,
	Args: cobra.ExactArgs(2),
	RunE: runRender,
}

var renderTime timeValue

func init() {
	renderCmd.Flags().StringP("output", "o", "", "Output PNG file (required)")
	renderCmd.MarkFlagRequired("output")
	addTimeFlag(renderCmd.Flags(), &renderTime)
	renderCmd.Flags().Int64("chrono-ms", -1, "Show the stopwatch stopped at this elapsed time")
	renderCmd.Flags().Bool("digital", false, "Show the stopwatch digital readout")
	renderCmd.Flags().AddFlagSet(faceFlags())
}

func runRender(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	chronoMS, _ := cmd.Flags().GetInt64("chrono-ms")
	digital, _ := cmd.Flags().GetBool("digital")
	scale, _ := cmd.Flags().GetInt("scale")

	timers := sched.NewManual(renderTime.Time())
	fc, err := openFace(cmd, args, timers, nil)
	if err != nil {
		return err
	}
	defer fc.close()

	if chronoMS >= 0 {
		held := chrono.New(logrus.StandardLogger())
		held.Hold = chronoMS % hands.MSPerDay
		if err := held.Save(fc.store); err != nil {
			return fmt.Errorf("store stopwatch: %w", err)
		}
	}

	f := fc.face
	f.Start()
	defer f.Stop()
	if err := applySettings(cmd, f); err != nil {
		return err
	}
	if digital {
		f.HandleButton(face.ButtonUp, false)
	}

	c := face.NewCanvas(fc.def.Size.X, fc.def.Size.Y)
	if err := f.Render(c); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	if err := writePNG(outputPath, c, scale); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Rendered %s at %s to %s\n", fc.def.Name, timers.Now().Format(time.RFC3339), outputPath)
	return nil
}

// run command
var runCmd = &cobra.Command{
	Use:   "run <face.txt> <pack>",
	Short: "Run a face on the wall clock, rewriting a PNG on every redraw",
	Long: `Run a face definition on real timers until interrupted.

The output PNG is rewritten after every redraw. With --buttons, lines
read from stdin press buttons: "select", "up", "down" or "long down".`,
	Args: cobra.ExactArgs(2),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringP("output", "o", "", "Output PNG file (required)")
	runCmd.MarkFlagRequired("output")
	runCmd.Flags().Duration("duration", 0, "Stop after this long (default: until interrupted)")
	runCmd.Flags().Bool("buttons", false, "Read button presses from stdin")
	runCmd.Flags().AddFlagSet(faceFlags())
}

func runRun(cmd *cobra.Command, args []string) error {
	outputPath, _ := cmd.Flags().GetString("output")
	duration, _ := cmd.Flags().GetDuration("duration")
	buttons, _ := cmd.Flags().GetBool("buttons")
	scale, _ := cmd.Flags().GetInt("scale")

	loop := sched.NewLoop()
	var f *face.Face
	var def *model.FaceDef
	pending := false
	redraw := func() {
		pending = false
		c := face.NewCanvas(def.Size.X, def.Size.Y)
		if err := f.Render(c); err != nil {
			logrus.WithError(err).Warn("frame skipped")
			return
		}
		if err := writePNG(outputPath, c, scale); err != nil {
			logrus.WithError(err).Error("frame not written")
		}
		logrus.WithField("frame", f.Frames()).Debug("frame written")
	}
	onInvalidate := func(hands.Layer) {
		if !pending {
			pending = true
			loop.Post(redraw)
		}
	}

	fc, err := openFace(cmd, args, loop, onInvalidate)
	if err != nil {
		return err
	}
	defer fc.close()
	f, def = fc.face, fc.def

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()
	if duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, duration)
		defer cancel()
	}

	f.Start()
	if err := applySettings(cmd, f); err != nil {
		f.Stop()
		return err
	}
	if buttons {
		go readButtons(loop, f)
	}

	err = loop.Run(ctx)
	f.Stop()
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// readButtons posts button presses read from stdin to the loop
func readButtons(loop *sched.Loop, f *face.Face) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		long := fields[0] == "long" && len(fields) > 1
		if long {
			fields = fields[1:]
		}
		b, err := face.ParseButton(fields[0])
		if err != nil {
			logrus.WithError(err).Warn("ignoring input")
			continue
		}
		loop.Post(func() { f.HandleButton(b, long) })
	}
}

// openedFace is a face with the resources backing it
type openedFace struct {
	face  *face.Face
	def   *model.FaceDef
	pack  *resource.Pack
	store store.Store
	db    *store.SQLite
}

func (o *openedFace) close() {
	o.pack.Close()
	if o.db != nil {
		o.db.Close()
	}
}

// openFace loads the definition, the pack and the store named by the
// command's arguments and flags.
func openFace(cmd *cobra.Command, args []string, timers sched.Timers, onInvalidate func(hands.Layer)) (*openedFace, error) {
	storePath, _ := cmd.Flags().GetString("store")
	battery, _ := cmd.Flags().GetInt("battery")
	charging, _ := cmd.Flags().GetBool("charging")
	plugged, _ := cmd.Flags().GetBool("plugged")
	disconnected, _ := cmd.Flags().GetBool("disconnected")
	keepAssets, _ := cmd.Flags().GetBool("keep-assets")
	heapLimit, _ := cmd.Flags().GetInt("heap")

	in, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("open face definition: %w", err)
	}
	def, err := dialface.ParseFace(in)
	in.Close()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", args[0], err)
	}

	pack, err := resource.OpenFile(args[1])
	if err != nil {
		return nil, err
	}
	pack.SetAllocator(model.NewHeap(heapLimit))

	o := &openedFace{def: def, pack: pack, store: store.NewMemory()}
	if storePath != "" {
		db, err := store.OpenSQLite(storePath)
		if err != nil {
			pack.Close()
			return nil, err
		}
		o.db, o.store = db, db
	}

	o.face, err = face.New(face.Params{
		Def:    def,
		Loader: pack,
		Timers: timers,
		Store:  o.store,
		Sensors: face.StaticSensors{
			State:     face.BatteryState{Percent: battery, Charging: charging, Plugged: plugged},
			Connected: !disconnected,
		},
		Log:          logrus.StandardLogger(),
		KeepAssets:   keepAssets,
		OnInvalidate: onInvalidate,
	})
	if err != nil {
		o.close()
		return nil, err
	}
	return o, nil
}

// applySettings sends --set, --locale and --draw-mode to the face as
// one update
func applySettings(cmd *cobra.Command, f *face.Face) error {
	sets, _ := cmd.Flags().GetStringArray("set")
	locale, _ := cmd.Flags().GetString("locale")
	if locale != "" {
		sets = append(sets, localeSetting(locale))
	}
	drawMode, _ := cmd.Flags().GetString("draw-mode")
	if drawMode != "" {
		sets = append(sets, "draw_mode="+drawMode)
	}
	if len(sets) == 0 {
		return nil
	}

	opts := f.Options()
	updates := make(map[config.Key]int32)
	for _, s := range sets {
		if err := opts.SetString(s); err != nil {
			return fmt.Errorf("--set %s: %w", s, err)
		}
		name, _, _ := strings.Cut(s, "=")
		k, err := config.ParseKey(name)
		if err != nil {
			return err
		}
		updates[k] = opts.Get(k)
	}
	if f.ApplyConfig(updates) {
		logrus.WithField("options", f.Options().String()).Info("config updated")
	}
	return nil
}

// localeSetting maps a locale to the display_lang option. Locales with
// no matching table fall back to English.
func localeSetting(locale string) string {
	index := lang.Match(locale)
	logrus.WithFields(logrus.Fields{
		"locale": locale,
		"lang":   lang.Get(index).Name,
	}).Debug("display language")
	return fmt.Sprintf("%s=%d", config.KeyDisplayLang, index)
}

// writePNG replaces path with the encoded canvas
func writePNG(path string, c *face.Canvas, scale int) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".dialface-*.png")
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, scaled(c, scale)); err != nil {
		tmp.Close()
		return fmt.Errorf("encode PNG: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
