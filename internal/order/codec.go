package order

import (
	"encoding/binary"
	"fmt"

	"github.com/rexeee/mai-protocol/pkg/types"
)

// Packed metadata layout, most-significant byte first:
//
//	[0]     version
//	[1]     side            (1 = sell)
//	[2]     isMarketOrder   (1 = market)
//	[3:8]   expiredAt       (5 bytes, unix seconds)
//	[8:10]  makerFeeRate
//	[10:12] takerFeeRate
//	[12:14] makerRebateRate
//	[14:22] salt
//	[22]    isMakerOnly     (1 = maker only)
//	[23:32] reserved, must be zero
//
// Any change to this layout invalidates every outstanding signature, since
// the data word is hashed into the order digest.
const maxExpiredAt = 1<<40 - 1

// EncodeMetadata packs metadata into the fixed 32-byte order data word.
// Fields that do not fit their allotted width fail with EncodingOverflow.
func EncodeMetadata(m Metadata) ([32]byte, error) {
	var data [32]byte

	if m.ExpiredAt > maxExpiredAt {
		return data, fmt.Errorf("%w: expiredAt %d exceeds 5 bytes", types.ErrEncodingOverflow, m.ExpiredAt)
	}
	if m.Side > SideSell {
		return data, fmt.Errorf("%w: side %d", types.ErrEncodingOverflow, m.Side)
	}

	data[0] = m.Version
	if m.Side == SideSell {
		data[1] = 1
	}
	if m.IsMarketOrder {
		data[2] = 1
	}

	var expiry [8]byte
	binary.BigEndian.PutUint64(expiry[:], m.ExpiredAt)
	copy(data[3:8], expiry[3:])

	binary.BigEndian.PutUint16(data[8:10], m.MakerFeeRate)
	binary.BigEndian.PutUint16(data[10:12], m.TakerFeeRate)
	binary.BigEndian.PutUint16(data[12:14], m.MakerRebateRate)
	binary.BigEndian.PutUint64(data[14:22], m.Salt)
	if m.IsMakerOnly {
		data[22] = 1
	}

	return data, nil
}

// DecodeMetadata is the exact inverse of EncodeMetadata:
// DecodeMetadata(EncodeMetadata(m)) == m for every valid m.
func DecodeMetadata(data [32]byte) (Metadata, error) {
	for _, b := range data[23:] {
		if b != 0 {
			return Metadata{}, fmt.Errorf("%w: reserved bytes not zero", types.ErrEncodingOverflow)
		}
	}

	var expiry [8]byte
	copy(expiry[3:], data[3:8])

	m := Metadata{
		Version:         data[0],
		Side:            SideBuy,
		IsMarketOrder:   data[2] != 0,
		ExpiredAt:       binary.BigEndian.Uint64(expiry[:]),
		MakerFeeRate:    binary.BigEndian.Uint16(data[8:10]),
		TakerFeeRate:    binary.BigEndian.Uint16(data[10:12]),
		MakerRebateRate: binary.BigEndian.Uint16(data[12:14]),
		Salt:            binary.BigEndian.Uint64(data[14:22]),
		IsMakerOnly:     data[22] != 0,
	}
	if data[1] != 0 {
		m.Side = SideSell
	}

	return m, nil
}
