package scp

import (
	"encoding/binary"
	"strings"
)

const (
	// ImplicitVRLittleEndian is the default transfer syntax.
	ImplicitVRLittleEndian = "1.2.840.10008.1.2"
	// ImplementationClassUID identifies files written by the archive.
	ImplementationClassUID = "1.2.826.0.1.3680043.10.1471.1"

	preambleLength = 128
)

// WrapPart10 prefixes a bare data set with a preamble, the DICM prefix and
// a group 0002 file meta header in explicit VR little endian.
func WrapPart10(dataset []byte, sopClassUID, sopInstanceUID, transferSyntaxUID string) []byte {
	if transferSyntaxUID == "" {
		transferSyntaxUID = ImplicitVRLittleEndian
	}

	var meta []byte
	meta = appendExplicitElement(meta, 0x0001, "OB", []byte{0x00, 0x01})
	meta = appendExplicitElement(meta, 0x0002, "UI", uidValue(sopClassUID))
	meta = appendExplicitElement(meta, 0x0003, "UI", uidValue(sopInstanceUID))
	meta = appendExplicitElement(meta, 0x0010, "UI", uidValue(transferSyntaxUID))
	meta = appendExplicitElement(meta, 0x0012, "UI", uidValue(ImplementationClassUID))

	groupLength := make([]byte, 4)
	binary.LittleEndian.PutUint32(groupLength, uint32(len(meta)))

	out := make([]byte, preambleLength, preambleLength+4+12+len(meta)+len(dataset))
	out = append(out, "DICM"...)
	out = appendExplicitElement(out, 0x0000, "UL", groupLength)
	out = append(out, meta...)
	return append(out, dataset...)
}

// appendExplicitElement appends a group 0002 element. OB and the other
// long-form VRs carry two reserved bytes and a 32-bit length.
func appendExplicitElement(buf []byte, element uint16, vr string, value []byte) []byte {
	buf = binary.LittleEndian.AppendUint16(buf, 0x0002)
	buf = binary.LittleEndian.AppendUint16(buf, element)
	buf = append(buf, vr...)
	switch vr {
	case "OB", "OW", "OF", "SQ", "UN", "UT":
		buf = append(buf, 0, 0)
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(value)))
	default:
		buf = binary.LittleEndian.AppendUint16(buf, uint16(len(value)))
	}
	return append(buf, value...)
}

// uidValue pads a UID to even length with a NUL.
func uidValue(uid string) []byte {
	v := []byte(strings.TrimRight(uid, "\x00 "))
	if len(v)%2 == 1 {
		v = append(v, 0)
	}
	return v
}
