// Package imgx 在标记段层面识别 JPEG 容器，并取出其中的 Exif 段。
package imgx

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

const (
	markerSOI  = 0xd8
	markerEOI  = 0xd9
	markerSOS  = 0xda
	markerAPP1 = 0xe1
)

var exifIntro = []byte("Exif\x00\x00")

// ErrNotJPEG 表示内容不是可识别的 JPEG 容器（缺少 SOI 或 SOF）。
var ErrNotJPEG = errors.New("imgx: 不是 JPEG")

// JPEGInfo 是标记段扫描的结果。
type JPEGInfo struct {
	Width     int
	Height    int
	Precision int    // 采样精度（8 或 12）
	Process   byte   // SOF 标记的低字节，例如 0xc0 基线、0xc9 算术编码
	Exif      []byte // 第一个 "Exif\0\0" APP1 段去掉前缀后的 TIFF 数据；没有时为 nil
}

// Inspect 逐段读取 JPEG 头部，直到 SOS（不解码像素）。
//
// 约束：
// - 必须以 SOI 开头，并在 SOS 之前出现 SOF，否则返回 ErrNotJPEG
// - 接受所有 SOF 类型（基线/渐进/算术/无损，8 或 12 位）
// - Exif 取第一个以 "Exif\0\0" 开头的 APP1，与它前面是否有 XMP 等其他 APP1 无关
// - 截断在像素数据中的文件仍视为合法容器
func Inspect(r io.Reader) (JPEGInfo, error) {
	br := bufio.NewReader(r)

	var soi [2]byte
	if _, err := io.ReadFull(br, soi[:]); err != nil || soi[0] != 0xff || soi[1] != markerSOI {
		return JPEGInfo{}, ErrNotJPEG
	}

	var (
		info   JPEGInfo
		sawSOF bool
	)
	for {
		m, err := nextMarker(br)
		if err != nil {
			return JPEGInfo{}, fmt.Errorf("%w：%v", ErrNotJPEG, err)
		}

		switch {
		case m == markerSOS || m == markerEOI:
			if !sawSOF {
				return JPEGInfo{}, fmt.Errorf("%w：SOS 之前没有 SOF", ErrNotJPEG)
			}
			return info, nil
		case standalone(m):
			continue
		}

		payload, err := readSegment(br)
		if err != nil {
			return JPEGInfo{}, fmt.Errorf("%w：%v", ErrNotJPEG, err)
		}

		switch {
		case isSOF(m):
			if len(payload) < 6 {
				return JPEGInfo{}, fmt.Errorf("%w：SOF 段过短", ErrNotJPEG)
			}
			info.Process = m
			info.Precision = int(payload[0])
			info.Height = int(binary.BigEndian.Uint16(payload[1:3]))
			info.Width = int(binary.BigEndian.Uint16(payload[3:5]))
			if info.Width <= 0 {
				return JPEGInfo{}, fmt.Errorf("%w：图片尺寸无效", ErrNotJPEG)
			}
			sawSOF = true
		case m == markerAPP1 && info.Exif == nil && bytes.HasPrefix(payload, exifIntro):
			info.Exif = payload[len(exifIntro):]
		}
	}
}

// nextMarker 跳过填充的 0xff，返回下一个标记的低字节。
func nextMarker(br *bufio.Reader) (byte, error) {
	b, err := br.ReadByte()
	if err != nil {
		return 0, err
	}
	if b != 0xff {
		return 0, fmt.Errorf("期望标记，实际 0x%02x", b)
	}
	for {
		b, err = br.ReadByte()
		if err != nil {
			return 0, err
		}
		if b != 0xff {
			return b, nil
		}
	}
}

func readSegment(br *bufio.Reader) ([]byte, error) {
	var lenBuf [2]byte
	if _, err := io.ReadFull(br, lenBuf[:]); err != nil {
		return nil, err
	}
	n := int(binary.BigEndian.Uint16(lenBuf[:]))
	if n < 2 {
		return nil, fmt.Errorf("段长度无效：%d", n)
	}
	payload := make([]byte, n-2)
	if _, err := io.ReadFull(br, payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// standalone 标记没有长度字段：TEM 与 RST0..RST7。
func standalone(m byte) bool {
	return m == 0x01 || (m >= 0xd0 && m <= 0xd7)
}

// isSOF 覆盖 SOF0..SOF15，排除 DHT(c4)、JPG(c8)、DAC(cc)。
func isSOF(m byte) bool {
	return m >= 0xc0 && m <= 0xcf && m != 0xc4 && m != 0xc8 && m != 0xcc
}
