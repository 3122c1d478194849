// Command demo loads an asset manifest into a registry backed by a hidden
// OpenGL context, clones and animates the models, prints a snapshot of the
// registry and disposes everything again.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"render-assets/assets"
	"render-assets/config"
	"render-assets/internal/opengl"
	"render-assets/loader"
	"render-assets/registry"
	"render-assets/scene"
)

func main() {
	var (
		envFile = flag.String("env", ".env", "dotenv file with RENDER_ASSETS_* settings")
		initOut = flag.String("init", "", "write a starter manifest to this path and exit")
		frames  = flag.Int("frames", 120, "animation frames to simulate before disposal")
		clones  = flag.Int("clones", 2, "extra shallow clones per source model")
	)
	flag.Parse()

	if *initOut != "" {
		if err := os.WriteFile(*initOut, []byte(loader.Template), 0o644); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, cfg, log, *frames, *clones); err != nil {
		log.WithError(err).Fatal("demo failed")
	}
}

func run(ctx context.Context, cfg config.Config, log *logrus.Logger, frames, clones int) error {
	wcfg := opengl.DefaultWindowConfig()
	wcfg.Visible = false
	wcfg.Width, wcfg.Height = 64, 64
	window, err := opengl.NewWindow(wcfg)
	if err != nil {
		return err
	}
	defer window.Destroy()
	version, err := opengl.Init()
	if err != nil {
		return err
	}
	fbw, fbh := window.Size()
	log.WithFields(logrus.Fields{"version": version, "width": fbw, "height": fbh}).Info("OpenGL context ready")

	releaser := opengl.NewReleaser(log)
	reg := registry.New(
		registry.WithLogger(log),
		registry.WithReleaser(releaser),
		registry.WithStrictInvariants(cfg.StrictInvariants),
	)

	fsys := os.DirFS(cfg.AssetRoot)
	manifest, err := loader.ReadManifest(fsys, cfg.ManifestPath)
	if err != nil {
		return err
	}
	l := loader.New(reg, fsys,
		loader.WithLogger(log),
		loader.WithConcurrency(cfg.Concurrency),
		loader.OnProgress(func(p loader.Progress) {
			log.WithFields(logrus.Fields{"asset": p.Name, "loaded": p.Loaded, "total": p.Total}).Debug("asset registered")
		}),
	)
	if err := l.Load(ctx, manifest); err != nil {
		return err
	}

	a := assets.New(reg)
	s := scene.NewScene()
	if err := populate(a, s, clones); err != nil {
		return err
	}
	if hdris := reg.HDRIs(); len(hdris) > 0 {
		if err := a.ApplyEnvironment(s, hdris[0].Name); err != nil {
			return err
		}
	} else if cubes := reg.CubeMaps(); len(cubes) > 0 {
		if err := a.ApplyCubeEnvironment(s, cubes[0].Name); err != nil {
			return err
		}
	}
	if err := upload(reg, s); err != nil {
		return err
	}

	camera := scene.NewNode("camera")
	s.AddNode(camera)
	log.WithField("sources", a.SetCameraForPositionalAudio(camera)).Info("listener attached to camera")

	const dt = float32(1) / 60
	for i := 0; i < frames && !window.ShouldClose() && ctx.Err() == nil; i++ {
		a.UpdateAnimations(dt)
		window.Frame()
	}

	out, err := yaml.Marshal(a.Snapshot())
	if err != nil {
		return err
	}
	os.Stdout.Write(out)

	if err := a.DisposeByScene(s.Root); err != nil {
		return err
	}
	if err := a.DisposeEverything(s); err != nil {
		return err
	}
	st := releaser.Stats()
	log.WithFields(logrus.Fields{
		"geometries":   st.Geometries,
		"textures":     st.Textures,
		"cubeTextures": st.CubeTextures,
		"remaining":    reg.Len(),
	}).Info("registry emptied")
	return nil
}

// populate adds every source model to s together with a few shallow clones
// and starts all of their clips.
func populate(a *assets.Assets, s *scene.Scene, clones int) error {
	for _, src := range a.SourceModels() {
		if _, err := a.CloneModel(src.Name(), registry.CloneRequest{Kind: registry.ShallowClone, Count: clones}); err != nil {
			return err
		}
		insts, err := a.Clones(src.Name())
		if err != nil {
			return err
		}
		for i, inst := range append([]registry.Instance{src}, insts...) {
			inst.Node.Transform.Position[0] += float32(i) * 2
			inst.Node.InvalidateWorld()
			s.AddNode(inst.Node)
			if inst.Playback != nil {
				for name := range inst.Playback.Actions {
					inst.Playback.Play(name)
				}
			}
		}
	}
	return nil
}

func upload(reg *registry.Registry, s *scene.Scene) error {
	if err := opengl.UploadNode(s.Root); err != nil {
		return err
	}
	for _, rec := range reg.Textures() {
		if err := opengl.UploadTexture(rec.Source.Texture); err != nil {
			return err
		}
		for _, c := range rec.Clones() {
			if err := opengl.UploadTexture(c.Texture); err != nil {
				return err
			}
		}
	}
	for _, rec := range reg.CubeMaps() {
		if err := opengl.UploadCubeTexture(rec.Cube); err != nil {
			return err
		}
	}
	for _, rec := range reg.HDRCubeMaps() {
		if err := opengl.UploadCubeTexture(rec.Cube); err != nil {
			return err
		}
	}
	for _, rec := range reg.HDRIs() {
		if err := opengl.UploadTexture(rec.Environment); err != nil {
			return err
		}
		if err := opengl.UploadTexture(rec.Original); err != nil {
			return err
		}
	}
	return nil
}
