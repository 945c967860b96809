package tables

import "image"

// openHorizontal applies morphological opening with a length×1 line element.
// With a one-dimensional element, opening keeps exactly those runs at least
// as long as the element, so the implementation scans run lengths directly.
func openHorizontal(src *bitmap, length int) *bitmap {
	dst := newBitmap(src.w, src.h)
	for y := 0; y < src.h; y++ {
		runStart := -1
		for x := 0; x <= src.w; x++ {
			set := x < src.w && src.at(x, y)
			if set && runStart < 0 {
				runStart = x
			}
			if !set && runStart >= 0 {
				if x-runStart >= length {
					for i := runStart; i < x; i++ {
						dst.set(i, y)
					}
				}
				runStart = -1
			}
		}
	}
	return dst
}

// openVertical applies morphological opening with a 1×length line element.
func openVertical(src *bitmap, length int) *bitmap {
	dst := newBitmap(src.w, src.h)
	for x := 0; x < src.w; x++ {
		runStart := -1
		for y := 0; y <= src.h; y++ {
			set := y < src.h && src.at(x, y)
			if set && runStart < 0 {
				runStart = y
			}
			if !set && runStart >= 0 {
				if y-runStart >= length {
					for i := runStart; i < y; i++ {
						dst.set(x, i)
					}
				}
				runStart = -1
			}
		}
	}
	return dst
}

// boundingBoxes labels 8-connected foreground components and returns their
// axis-aligned bounding boxes.
func boundingBoxes(bm *bitmap) []image.Rectangle {
	visited := make([]bool, len(bm.bits))
	var boxes []image.Rectangle
	var stack []int

	for start, set := range bm.bits {
		if !set || visited[start] {
			continue
		}
		minX, minY := bm.w, bm.h
		maxX, maxY := -1, -1
		stack = append(stack[:0], start)
		visited[start] = true
		for len(stack) > 0 {
			idx := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			x, y := idx%bm.w, idx/bm.w
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < 0 || ny < 0 || nx >= bm.w || ny >= bm.h {
						continue
					}
					nidx := ny*bm.w + nx
					if bm.bits[nidx] && !visited[nidx] {
						visited[nidx] = true
						stack = append(stack, nidx)
					}
				}
			}
		}
		boxes = append(boxes, image.Rect(minX, minY, maxX+1, maxY+1))
	}
	return boxes
}
