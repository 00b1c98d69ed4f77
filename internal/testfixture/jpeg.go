// Package testfixture 为测试构造带 EXIF 的 JPEG 文件，仅供 _test.go 使用。
package testfixture

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"sort"
	"testing"
)

const (
	TagMake     uint16 = 0x010f
	TagDateTime uint16 = 0x0132
)

// PlainJPEG 返回一张不含 EXIF 的小 JPEG。
func PlainJPEG(tb testing.TB) []byte {
	tb.Helper()
	img := image.NewGray(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.Gray{Y: uint8(x * 30)})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 75}); err != nil {
		tb.Fatalf("生成 jpeg 失败：%v", err)
	}
	return buf.Bytes()
}

// JPEG 返回一张 EXIF IFD0 中只含 DateTime 的 JPEG。
func JPEG(tb testing.TB, dateTime string) []byte {
	tb.Helper()
	return JPEGWithTags(tb, map[uint16]string{TagDateTime: dateTime})
}

// JPEGWithTags 返回一张 EXIF IFD0 中含给定 ASCII 字段的 JPEG（小端 TIFF）。
func JPEGWithTags(tb testing.TB, tags map[uint16]string) []byte {
	tb.Helper()
	plain := PlainJPEG(tb)

	app1 := append([]byte("Exif\x00\x00"), tiffIFD0(tags)...)
	seg := make([]byte, 0, len(app1)+4)
	seg = append(seg, 0xff, 0xe1)
	seg = binary.BigEndian.AppendUint16(seg, uint16(len(app1)+2))
	seg = append(seg, app1...)

	return insertAfterSOI(plain, seg)
}

// JPEGWithXMPFirst 与 JPEG 相同，但在 Exif 段之前再放一个 XMP APP1 段。
func JPEGWithXMPFirst(tb testing.TB, dateTime string) []byte {
	tb.Helper()
	xmp := append([]byte("http://ns.adobe.com/xap/1.0/\x00"), `<x:xmpmeta xmlns:x="adobe:ns:meta/"/>`...)
	seg := make([]byte, 0, len(xmp)+4)
	seg = append(seg, 0xff, 0xe1)
	seg = binary.BigEndian.AppendUint16(seg, uint16(len(xmp)+2))
	seg = append(seg, xmp...)
	return insertAfterSOI(JPEG(tb, dateTime), seg)
}

func insertAfterSOI(jpg, seg []byte) []byte {
	out := make([]byte, 0, len(jpg)+len(seg))
	out = append(out, jpg[:2]...)
	out = append(out, seg...)
	out = append(out, jpg[2:]...)
	return out
}

func tiffIFD0(tags map[uint16]string) []byte {
	ids := make([]int, 0, len(tags))
	for id := range tags {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)

	le := binary.LittleEndian
	const ifdOffset = 8
	dataOffset := ifdOffset + 2 + 12*len(ids) + 4

	var head, data []byte
	head = append(head, 'I', 'I')
	head = le.AppendUint16(head, 42)
	head = le.AppendUint32(head, ifdOffset)
	head = le.AppendUint16(head, uint16(len(ids)))

	for _, id := range ids {
		val := append([]byte(tags[uint16(id)]), 0)
		head = le.AppendUint16(head, uint16(id))
		head = le.AppendUint16(head, 2) // ASCII
		head = le.AppendUint32(head, uint32(len(val)))
		if len(val) <= 4 {
			inline := make([]byte, 4)
			copy(inline, val)
			head = append(head, inline...)
			continue
		}
		head = le.AppendUint32(head, uint32(dataOffset+len(data)))
		data = append(data, val...)
	}
	head = le.AppendUint32(head, 0) // 没有 IFD1
	return append(head, data...)
}
