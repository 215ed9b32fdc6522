package ppu

// readOAMByte and writeOAMByte give byte-granular access to the object
// array, needed for CPU/DMA access to OAM's flat 160-byte layout. Each
// object occupies 4 consecutive bytes: Y, X, TileNumber, Attributes.
func (p *PPU) readOAMByte(address uint32) uint8 {
	if address >= oamSize {
		return 0xFF
	}
	obj := &p.oam[address/4]
	switch address % 4 {
	case 0:
		return obj.Y
	case 1:
		return obj.X
	case 2:
		return obj.TileNumber
	default:
		return obj.Attributes
	}
}

func (p *PPU) writeOAMByte(address uint32, value uint8) {
	if address >= oamSize {
		return
	}
	obj := &p.oam[address/4]
	switch address % 4 {
	case 0:
		obj.Y = value
	case 1:
		obj.X = value
	case 2:
		obj.TileNumber = value
	default:
		obj.Attributes = value
	}
}

// loadLineObjects collects up to objectsPerLine objects whose Y-range
// covers the current line. With OPRI bit 0 clear, OAM is scanned in
// reverse, so higher indices are listed (and win over overlapping
// objects in the pixel fetch) first. With it set, OAM is scanned forward
// and the list is kept sorted by descending X, then descending index.
func (p *PPU) loadLineObjects() {
	if p.lineObjectCount == objectsPerLine {
		return
	}

	objectHeight := uint8(8)
	if p.control&lcdcTallObjects != 0 {
		objectHeight = 16
	}

	if p.priorityMode&1 == 0 {
		for i := objectCount - 1; i >= 0; i-- {
			obj := &p.oam[i]
			if obj.X > 0 && p.line+16 >= obj.Y && p.line+16 < obj.Y+objectHeight {
				p.lineObjectIndices[p.lineObjectCount] = uint8(i)
				p.lineObjectCount++
				if p.lineObjectCount == objectsPerLine {
					break
				}
			}
		}
		return
	}

	for i := 0; i < objectCount; i++ {
		obj := &p.oam[i]
		if obj.X > 0 && p.line+16 >= obj.Y && p.line+16 < obj.Y+objectHeight {
			p.lineObjectIndices[p.lineObjectCount] = uint8(i)
			p.lineObjectCount++
			p.sortLineObjectsByDescendingX()
			if p.lineObjectCount == objectsPerLine {
				break
			}
		}
	}
}

// sortLineObjectsByDescendingX re-sorts the whole line-object list after
// each insertion, keeping it ordered by descending X and, for ties,
// descending OAM index.
func (p *PPU) sortLineObjectsByDescendingX() {
	indices := p.lineObjectIndices[:p.lineObjectCount]
	for i := len(indices) - 1; i > 0 && !p.objectBefore(indices[i-1], indices[i]); i-- {
		indices[i-1], indices[i] = indices[i], indices[i-1]
	}
}

// objectBefore reports whether object a sorts before object b under
// descending-X, descending-index order.
func (p *PPU) objectBefore(a, b uint8) bool {
	xa, xb := p.oam[a].X, p.oam[b].X
	if xa == xb {
		return a > b
	}
	return xa > xb
}
