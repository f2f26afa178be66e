package glbackend

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"
)

// Framebuffer is an offscreen RGBA8 render target used for export.
type Framebuffer struct {
	Width  int
	Height int
	fbo    uint32
	color  uint32
}

// NewFramebuffer allocates a width x height colour target.
func NewFramebuffer(width, height int) (*Framebuffer, error) {
	w, h, err := glSize(width, height)
	if err != nil {
		return nil, err
	}
	fb := &Framebuffer{Width: width, Height: height}
	gl.GenTextures(1, &fb.color)
	gl.BindTexture(gl.TEXTURE_2D, fb.color)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, w, h, 0, gl.RGBA, gl.UNSIGNED_BYTE, nil)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.BindTexture(gl.TEXTURE_2D, 0)

	gl.GenFramebuffers(1, &fb.fbo)
	gl.BindFramebuffer(gl.FRAMEBUFFER, fb.fbo)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, fb.color, 0)
	status := gl.CheckFramebufferStatus(gl.FRAMEBUFFER)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	if status != gl.FRAMEBUFFER_COMPLETE {
		fb.Release()
		return nil, fmt.Errorf("glbackend: framebuffer incomplete: 0x%x", status)
	}
	return fb, nil
}

// Release frees the GL objects.
func (fb *Framebuffer) Release() {
	gl.DeleteFramebuffers(1, &fb.fbo)
	gl.DeleteTextures(1, &fb.color)
}

// Blit stretches the colour target onto the window framebuffer at the
// given destination rectangle, in window pixels from the bottom-left.
func (fb *Framebuffer) Blit(x, y, width, height int) {
	sw, sh, err := glSize(fb.Width, fb.Height)
	if err != nil {
		return
	}
	dx0, dy0, err := glSize(x, y)
	if err != nil {
		return
	}
	dx1, dy1, err := glSize(x+width, y+height)
	if err != nil {
		return
	}
	gl.BindFramebuffer(gl.READ_FRAMEBUFFER, fb.fbo)
	gl.BindFramebuffer(gl.DRAW_FRAMEBUFFER, 0)
	gl.BlitFramebuffer(0, 0, sw, sh, dx0, dy0, dx1, dy1, gl.COLOR_BUFFER_BIT, gl.LINEAR)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Fit returns the largest rectangle with the aspect ratio of src that fits
// centred inside dst.
func Fit(srcW, srcH, dstW, dstH int) (x, y, w, h int) {
	if srcW <= 0 || srcH <= 0 || dstW <= 0 || dstH <= 0 {
		return 0, 0, 0, 0
	}
	w, h = dstW, dstW*srcH/srcW
	if h > dstH {
		w, h = dstH*srcW/srcH, dstH
	}
	return (dstW - w) / 2, (dstH - h) / 2, w, h
}

// ClearWindow binds the window framebuffer, sets a width x height viewport
// and clears it to black.
func ClearWindow(width, height int) {
	w, h, err := glSize(width, height)
	if err != nil {
		return
	}
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	gl.Viewport(0, 0, w, h)
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}
