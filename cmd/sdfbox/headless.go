package main

import (
	"fmt"

	"sdfbox/internal/animation"
	"sdfbox/internal/config"
	"sdfbox/internal/diagnostic"
	"sdfbox/internal/graphics/glbackend"
	"sdfbox/internal/raymarch"
	"sdfbox/internal/report"
	"sdfbox/internal/scene"
)

// headless renders a scene into an offscreen target the size of its
// viewport. The GL context must be current.
type headless struct {
	device       *glbackend.Device
	background   *glbackend.Background
	environments *glbackend.Environments
	target       *glbackend.Framebuffer
	core         *raymarch.Core

	src     sources
	printer *report.Printer
	cpu     []diagnostic.Record
	gpu     []diagnostic.Record
}

func newHeadless(cfg config.Config, src sources, printer *report.Printer, scale float64) (*headless, error) {
	w := max(int(float64(src.doc.ViewportSize.Width)*scale+0.5), 1)
	h := max(int(float64(src.doc.ViewportSize.Height)*scale+0.5), 1)

	target, err := glbackend.NewFramebuffer(w, h)
	if err != nil {
		return nil, err
	}
	device, err := glbackend.NewDevice(w, h)
	if err != nil {
		target.Release()
		return nil, err
	}
	device.UseFramebuffer(target)
	background, err := glbackend.NewBackground(cfg.Render.Precision, 1)
	if err != nil {
		device.Release()
		target.Release()
		return nil, fmt.Errorf("background: %w", err)
	}
	hl := &headless{
		device:       device,
		background:   background,
		environments: glbackend.NewEnvironments(),
		target:       target,
		src:          src,
		printer:      printer,
	}
	hl.core = raymarch.New(device, background, animation.GojaEngine{}, raymarch.Options{
		Tuning:            cfg.Raymarch,
		Precision:         cfg.Render.Precision,
		EnvMapIntensity:   src.doc.EnvironmentIntensity,
		AnimationDuration: src.doc.AnimationDuration,
		OnCPUErrors:       hl.setCPUErrors,
		OnGPUErrors:       hl.setGPUErrors,
	})
	if err := hl.apply(src.doc); err != nil {
		hl.Close()
		return nil, err
	}
	return hl, nil
}

func (hl *headless) apply(doc scene.Document) error {
	bg, err := doc.Background()
	if err != nil {
		return err
	}
	hl.background.SetColor(bg)
	env, err := hl.environments.Load(doc.Environment)
	if err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	return doc.Apply(hl.core, env)
}

func (hl *headless) setCPUErrors(records []diagnostic.Record) {
	hl.cpu = records
	if hl.printer != nil {
		hl.printer.Records(hl.src.name("cpu"), hl.src.doc.CPUCode, records)
	}
}

func (hl *headless) setGPUErrors(records []diagnostic.Record) {
	hl.gpu = records
	if hl.printer != nil {
		hl.printer.Records(hl.src.name("gpu"), hl.src.doc.GPUCode, records)
	}
}

// Errors reports how many records each stage currently holds.
func (hl *headless) Errors() (cpu, gpu int) {
	return len(hl.cpu), len(hl.gpu)
}

func (hl *headless) Close() {
	hl.core.Close()
	hl.background.Release()
	hl.environments.Release()
	hl.device.UseFramebuffer(nil)
	hl.device.Release()
	hl.target.Release()
}
