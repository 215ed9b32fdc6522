package ppu

// processPipeline drives the pixel fetcher for one dot tick: on even line
// ticks it advances the five-state fetch state machine, then on every
// tick it attempts to shift one pixel out of the FIFO into the screen
// buffer.
func (p *PPU) processPipeline() {
	f := &p.fetcher

	f.mapY = p.line + p.scrollY
	f.mapX = f.fetchX + p.scrollX
	f.tileY = (f.mapY % 8) * 2

	if p.lineTick%2 == 0 {
		switch f.mode {
		case fetchTileNumber:
			f.fetchedObjCount = 0

			p.loadBackgroundTileNumber()
			if p.control&lcdcWinEnable != 0 {
				p.loadWindowTileNumber()
			}
			if p.control&lcdcObjEnable != 0 && p.lineObjectCount > 0 {
				p.loadObjectTileNumber()
			}

			f.fetchX += 8
			f.mode = fetchTileDataLow

		case fetchTileDataLow:
			tileNumber := f.bgwFetchData[0]
			target := uint32(tileNumber)*16 + uint32(f.tileY)
			if tileNumber < 127 && p.control&lcdcBGWAddressMode == 0 {
				target += 0x1000
			}
			f.bgwFetchData[1] = p.readActiveBank(target)
			p.loadObjectTileData(0)
			f.mode = fetchTileDataHigh

		case fetchTileDataHigh:
			tileNumber := f.bgwFetchData[0]
			target := uint32(tileNumber)*16 + uint32(f.tileY) + 1
			if tileNumber < 127 && p.control&lcdcBGWAddressMode == 0 {
				target += 0x1000
			}
			f.bgwFetchData[2] = p.readActiveBank(target)
			p.loadObjectTileData(1)
			f.mode = fetchSleep

		case fetchSleep:
			f.mode = fetchPush

		case fetchPush:
			if p.tryAddPixel() {
				f.mode = fetchTileNumber
			}
		}
	}

	p.shiftNextPixel()
}

func (p *PPU) readActiveBank(address uint32) uint8 {
	if address >= vramBankSize {
		return 0xFF
	}
	return p.vram[p.vramBank][address]
}

func (p *PPU) loadBackgroundTileNumber() {
	f := &p.fetcher

	tilemapAddress := uint32(0x1800)
	if p.control&lcdcBGTilemap != 0 {
		tilemapAddress = 0x1C00
	}

	tileY := f.mapY / 8
	target := tilemapAddress + uint32(f.mapX/8) + uint32(tileY)*32

	f.bgwFetchData[0] = p.vram[0][target%vramBankSize]
	f.bgwFetchData[3] = p.vram[1][target%vramBankSize]
}

func (p *PPU) loadWindowTileNumber() {
	f := &p.fetcher

	if !p.windowVisible() {
		return
	}
	if uint16(f.fetchX)+7 < uint16(p.windowX) || uint16(f.fetchX)+7 >= uint16(p.windowX)+14+ScreenHeight {
		return
	}
	if p.line < p.windowY || p.line >= p.windowY+ScreenWidth {
		return
	}

	tilemapAddress := uint32(0x1800)
	if p.control&lcdcWinTilemap != 0 {
		tilemapAddress = 0x1C00
	}

	tileY := p.windowLine / 8
	target := tilemapAddress + uint32(uint16(f.fetchX)+7-uint16(p.windowX))/8 + uint32(tileY)*32

	f.bgwFetchData[0] = p.vram[0][target%vramBankSize]
}

func (p *PPU) loadObjectTileNumber() {
	f := &p.fetcher

	for i := uint8(0); i < p.lineObjectCount; i++ {
		objIndex := p.lineObjectIndices[i]
		obj := &p.oam[objIndex]

		objX := int16(obj.X) - 8 + int16(p.scrollX%8)
		fetchX := int16(f.fetchX)

		if (objX >= fetchX && objX < fetchX+8) || (objX+8 >= fetchX && objX+8 < fetchX+8) {
			f.fetchedObjIndices[f.fetchedObjCount] = objIndex
			f.fetchedObjCount++
			if f.fetchedObjCount == 3 {
				break
			}
		}
	}
}

func (p *PPU) loadObjectTileData(offset uint8) {
	f := &p.fetcher

	objectHeight := uint8(8)
	if p.control&lcdcTallObjects != 0 {
		objectHeight = 16
	}

	for i := uint8(0); i < f.fetchedObjCount; i++ {
		objIndex := f.fetchedObjIndices[i]
		obj := &p.oam[objIndex]

		tileY := (p.line + 16 - obj.Y) * 2
		if obj.Attributes&attrYFlip != 0 {
			tileY = (objectHeight*2 - 2) - tileY
		}

		tileNumber := obj.TileNumber
		if objectHeight == 16 {
			tileNumber &^= 1
		}

		target := uint32(tileNumber)*16 + uint32(tileY) + uint32(offset)
		f.objFetchData[i*2+offset] = p.readActiveBank(target)
	}
}

func (p *PPU) pushColor(value uint32) {
	p.fetcher.fifo = append(p.fetcher.fifo, value)
}

func (p *PPU) popColor() uint32 {
	v := p.fetcher.fifo[0]
	p.fetcher.fifo = p.fetcher.fifo[1:]
	return v
}

func (p *PPU) bgwColor(paletteIndex, colorIndex uint8) uint32 {
	return cramColor(&p.bgCRAM, paletteIndex, colorIndex)
}

func (p *PPU) objColor(paletteIndex, colorIndex uint8) uint32 {
	return cramColor(&p.objCRAM, paletteIndex, colorIndex)
}

// cramColor packs the four RGBA bytes at the palette's slot into one
// 32-bit color. The index arithmetic (palette stride of bytesPerPalette,
// not 4*4) is inherited as-is: color indices 2 and 3 alias into the
// neighboring palette's bytes rather than addressing a dedicated 16-byte
// slot. This is a known, preserved quirk (see DESIGN.md), not a bug fix
// opportunity.
func cramColor(cram *[cramSize]byte, paletteIndex, colorIndex uint8) uint32 {
	paletteIndex %= 8
	colorIndex %= 8

	start := int(paletteIndex)*bytesPerPalette + int(colorIndex)*4
	r := cram[start%cramSize]
	g := cram[(start+1)%cramSize]
	b := cram[(start+2)%cramSize]
	a := cram[(start+3)%cramSize]

	return uint32(r)<<24 | uint32(g)<<16 | uint32(b)<<8 | uint32(a)
}

// fetchObjPixel overlays any fetched object's pixel at the FIFO's current
// X position over the background/window color, honoring object-vs-BGW
// priority rules.
func (p *PPU) fetchObjPixel(bit, bgwColorIndex uint8, colorValue uint32, tileBGWPriority uint8) uint32 {
	f := &p.fetcher

	for i := uint8(0); i < f.fetchedObjCount; i++ {
		objIndex := f.fetchedObjIndices[i]
		obj := &p.oam[objIndex]

		objX := int16(obj.X) - 8 + int16(p.scrollX%8)
		if objX+8 < int16(f.fifoX) {
			continue
		}

		offset := int16(f.fifoX) - objX
		if offset < 0 || offset > 7 {
			continue
		}

		if obj.Attributes&attrXFlip != 0 {
			bit = uint8(offset)
		} else {
			bit = 7 - uint8(offset)
		}

		lowBit := (f.objFetchData[i*2] >> bit) & 1
		highBit := (f.objFetchData[i*2+1] >> bit) & 1
		colorIndex := highBit<<1 | lowBit

		if colorIndex == 0 {
			continue
		}

		if bgwColorIndex == 0 || p.control&lcdcBGWPriority == 0 ||
			(tileBGWPriority == 0 && obj.Attributes&attrBGWPriority == 0) {
			colorValue = p.objColor(obj.Attributes&attrPaletteMask, colorIndex)
			break
		}
	}

	return colorValue
}

// tryAddPixel decodes the eight pixels of the currently-loaded BGW tile
// row, composites any overlapping object pixels, and enqueues all eight.
// It refuses to add anything while the FIFO already holds more than
// eight pixels, so the caller retries on a later tick.
func (p *PPU) tryAddPixel() bool {
	f := &p.fetcher

	if len(f.fifo) > 8 {
		return false
	}

	attributes := f.bgwFetchData[3]
	xFlip := attributes&attrXFlip != 0
	paletteNumber := attributes & attrPaletteMask
	bgwPriority := uint8(0)
	if attributes&attrBGWPriority != 0 {
		bgwPriority = 1
	}

	offsetX := int(f.fetchX) - (8 - int(p.scrollX%8))
	if offsetX < 0 {
		return true
	}

	for i := uint8(0); i < 8; i++ {
		var bit uint8
		if xFlip {
			bit = i
		} else {
			bit = 7 - i
		}

		lowBit := (f.bgwFetchData[1] >> bit) & 1
		highBit := (f.bgwFetchData[2] >> bit) & 1
		colorIndex := highBit<<1 | lowBit

		colorValue := p.bgwColor(paletteNumber, colorIndex)
		if p.control&lcdcObjEnable != 0 {
			colorValue = p.fetchObjPixel(bit, colorIndex, colorValue, bgwPriority)
		}

		p.pushColor(colorValue)
		f.fifoX++
	}

	return true
}

// shiftNextPixel pops one pixel from the FIFO, discarding the first
// SCX%8 pixels of the line to implement fine-X scroll, and writes the
// rest into the screen buffer.
func (p *PPU) shiftNextPixel() {
	f := &p.fetcher

	if len(f.fifo) <= 8 {
		return
	}

	colorValue := p.popColor()

	if f.lineX >= p.scrollX%8 {
		index := uint32(f.pushedX) + uint32(p.line)*ScreenWidth
		if index < uint32(len(p.Screen)) {
			p.Screen[index] = colorValue
		}
		f.pushedX++
	}

	f.lineX++
}
