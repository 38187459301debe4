// Package text draws shaped text through a gr.Context.
//
// Fonts are parsed twice: golang.org/x/image/font/sfnt provides outlines
// and metrics, go-text/typesetting provides HarfBuzz shaping. Strings are
// split into directional runs with golang.org/x/text/unicode/bidi, shaped
// run by run and laid out in visual order.
//
// Glyph masks are rasterized on the CPU and packed into a single R8 atlas
// texture. The atlas holds a lock on its texture in the context's cache and
// registers itself as a gr.ResourceOwner, so FreeGpuResources and
// ContextLost reach it.
//
//	tc, err := text.NewContext(ctx)
//	if err != nil {
//	    return err
//	}
//	defer tc.Close()
//
//	face := text.MustDefaultFont().Face(16)
//	paint := gr.NewPaint()
//	tc.DrawString(&paint, "Hello, world", face, 10, 30)
//
// Text draws use the Text draw category: consecutive strings are batched in
// the context's draw buffer until another category is drawn or the atlas
// has to change.
package text
