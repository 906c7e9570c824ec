package rawsend

import (
	"encoding/binary"
	"fmt"

	"github.com/ajroetker/go-lsc/lsc"
)

// Block2DHeaderBytes is the size of the 2-D block address payload:
//
//	bytes 0-7   surface base address
//	bytes 8-11  surface width - 1, in bytes
//	bytes 12-15 surface height - 1, in rows
//	bytes 16-19 surface pitch - 1, in bytes
//	bytes 20-23 block X, in elements (signed)
//	bytes 24-27 block Y, in rows (signed)
//	bytes 28-31 block width - 1 [7:0], block height - 1 [15:8],
//	            number of blocks - 1 [31:24]
const Block2DHeaderBytes = 32

// EncodeBlock2DHeader builds the 2-D block address payload for a surface
// at the flat address base.
func EncodeBlock2DHeader(base uint64, b lsc.Block2D) []byte {
	p := make([]byte, Block2DHeaderBytes)
	binary.LittleEndian.PutUint64(p[0:], base)
	binary.LittleEndian.PutUint32(p[8:], uint32(b.Width-1))
	binary.LittleEndian.PutUint32(p[12:], uint32(b.Height-1))
	binary.LittleEndian.PutUint32(p[16:], uint32(b.Pitch-1))
	binary.LittleEndian.PutUint32(p[20:], uint32(int32(b.X)))
	binary.LittleEndian.PutUint32(p[24:], uint32(int32(b.Y)))
	shape := uint32(b.BlockWidth-1)&0xFF | uint32(b.BlockHeight-1)&0xFF<<8 | uint32(b.NumBlocks-1)&0xFF<<24
	binary.LittleEndian.PutUint32(p[28:], shape)
	return p
}

// decodeBlock2DHeader is the inverse of EncodeBlock2DHeader.
func decodeBlock2DHeader(p []byte) (uint64, lsc.Block2D, error) {
	if len(p) < Block2DHeaderBytes {
		return 0, lsc.Block2D{}, fmt.Errorf("%w: 2d header holds %d bytes, need %d", lsc.ErrOperandCount, len(p), Block2DHeaderBytes)
	}
	shape := binary.LittleEndian.Uint32(p[28:])
	b := lsc.Block2D{
		Width:       int(binary.LittleEndian.Uint32(p[8:])) + 1,
		Height:      int(binary.LittleEndian.Uint32(p[12:])) + 1,
		Pitch:       int(binary.LittleEndian.Uint32(p[16:])) + 1,
		X:           int(int32(binary.LittleEndian.Uint32(p[20:]))),
		Y:           int(int32(binary.LittleEndian.Uint32(p[24:]))),
		BlockWidth:  int(shape&0xFF) + 1,
		BlockHeight: int(shape>>8&0xFF) + 1,
		NumBlocks:   int(shape>>24&0xFF) + 1,
	}
	return binary.LittleEndian.Uint64(p[0:]), b, nil
}

func dispatchBlock2D(e *lsc.Engine, m Message, req Request) error {
	if m.Transpose || (m.Op == OpLoadBlock2D && m.VNNI) {
		return fmt.Errorf("%w: transposed or VNNI 2d block", lsc.ErrUnsupportedOp)
	}
	base, b, err := decodeBlock2DHeader(req.Addr)
	if err != nil {
		return err
	}
	t := lsc.FlatAddress(req.SFID, base)
	switch m.DataSize {
	case lsc.U8:
		return transfer2D[uint8](e, m.Op, t, b, req)
	case lsc.U16:
		return transfer2D[uint16](e, m.Op, t, b, req)
	case lsc.U32:
		return transfer2D[uint32](e, m.Op, t, b, req)
	case lsc.U64:
		return transfer2D[uint64](e, m.Op, t, b, req)
	}
	return fmt.Errorf("%w: 2d block with data size %v", lsc.ErrIllegalShape, m.DataSize)
}

func transfer2D[T uint8 | uint16 | uint32 | uint64](e *lsc.Engine, op Op, t lsc.Target, b lsc.Block2D, req Request) error {
	if op == OpLoadBlock2D {
		data, err := lsc.Load2D[T](e, t, b)
		if err != nil {
			return err
		}
		return lsc.EncodePayload(req.Resp, data)
	}
	data, err := lsc.DecodePayload[T](req.Data, b.Len())
	if err != nil {
		return err
	}
	return lsc.Store2D(e, t, b, data)
}
