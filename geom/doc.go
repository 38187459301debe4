// Package geom provides the small set of geometric value types shared by the
// device abstraction, the resource cache and the drawing context: points,
// rectangles, integer rectangles and 2D affine matrices.
package geom
