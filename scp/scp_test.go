package scp

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/caio-sobreiro/dicomnet/dicom"
	"github.com/caio-sobreiro/dicomnet/dimse"
	"github.com/caio-sobreiro/dicomnet/types"
	"github.com/sirupsen/logrus/hooks/test"

	"dicom-archive/catalog"
	archivedicom "dicom-archive/dicom"
	"dicom-archive/ingest"
)

type stubStorer struct {
	got   []byte
	err   error
	panic bool
}

func (s *stubStorer) Store(ctx context.Context, data []byte) (*ingest.Outcome, error) {
	if s.panic {
		panic("boom")
	}
	s.got = data
	if s.err != nil {
		return nil, s.err
	}
	return &ingest.Outcome{SOPInstanceUID: "1.2.3", Result: &catalog.Result{Created: true}}, nil
}

func newTestHandler(s *stubStorer) *Handler {
	logger, _ := test.NewNullLogger()
	return NewHandler(s, logger)
}

func storeRequest() *types.Message {
	return &types.Message{
		CommandField:           dimse.CStoreRQ,
		MessageID:              7,
		AffectedSOPClassUID:    "1.2.840.10008.5.1.4.1.1.2",
		AffectedSOPInstanceUID: "1.2.3",
		TransferSyntaxUID:      "1.2.840.10008.1.2.1",
	}
}

func TestEcho(t *testing.T) {
	h := newTestHandler(&stubStorer{})
	resp, data, err := h.HandleDIMSE(context.Background(), &types.Message{CommandField: dimse.CEchoRQ, MessageID: 3}, nil)
	if err != nil || data != nil {
		t.Fatalf("HandleDIMSE = %v, %v", data, err)
	}
	if resp.Status != dimse.StatusSuccess || resp.MessageIDBeingRespondedTo != 3 {
		t.Errorf("response = %+v", resp)
	}
}

func TestStoreWrapsBareDataset(t *testing.T) {
	s := &stubStorer{}
	h := newTestHandler(s)
	dataset := []byte{0x08, 0x00, 0x18, 0x00, 0x06, 0x00, 0x00, 0x00, '1', '.', '2', '.', '3', 0}

	resp, _, _ := h.HandleDIMSE(context.Background(), storeRequest(), dataset)
	if resp.Status != dimse.StatusSuccess || resp.CommandField != dimse.CStoreRSP {
		t.Fatalf("response = %+v", resp)
	}
	if !dicom.HasPart10Header(s.got) {
		t.Fatal("stored data has no Part 10 header")
	}
	stripped, err := dicom.StripPart10Header(s.got)
	if err != nil || !bytes.Equal(stripped, dataset) {
		t.Errorf("data set after meta = %x, %v", stripped, err)
	}

	// already a file: passed through untouched
	file := WrapPart10(dataset, "1.2", "1.2.3", "")
	h.HandleDIMSE(context.Background(), storeRequest(), file)
	if !bytes.Equal(s.got, file) {
		t.Error("Part 10 input was rewrapped")
	}
}

func TestStoreStatuses(t *testing.T) {
	tests := []struct {
		storer *stubStorer
		want   uint16
	}{
		{&stubStorer{err: fmt.Errorf("decode: %w", archivedicom.ErrInvalidEncoding)}, StatusCannotUnderstand},
		{&stubStorer{err: catalog.ErrMissingIdentifier}, StatusCannotUnderstand},
		{&stubStorer{err: fmt.Errorf("%w: connection reset", catalog.ErrRecordStore)}, StatusStoreFailed},
		{&stubStorer{err: errors.New("disk full")}, StatusStoreFailed},
		{&stubStorer{panic: true}, StatusStoreFailed},
	}
	for i, tc := range tests {
		resp, _, err := newTestHandler(tc.storer).HandleDIMSE(context.Background(), storeRequest(), []byte("x"))
		if err != nil {
			t.Errorf("%d: err = %v", i, err)
			continue
		}
		if resp.Status != tc.want {
			t.Errorf("%d: status = 0x%04X, want 0x%04X", i, resp.Status, tc.want)
		}
	}
}

func TestUnsupportedCommand(t *testing.T) {
	resp, _, _ := newTestHandler(&stubStorer{}).HandleDIMSE(context.Background(), &types.Message{CommandField: 0x0020}, nil)
	if resp.Status != StatusUnrecognized || resp.CommandField != 0x8020 {
		t.Errorf("response = %+v", resp)
	}
}

func TestWrapPart10Meta(t *testing.T) {
	out := WrapPart10([]byte("DS"), "1.2.840.10008.5.1.4.1.1.7", "1.2.3", "")

	if string(out[128:132]) != "DICM" {
		t.Fatal("DICM prefix missing")
	}
	// (0002,0000) UL
	if g, e, vr := binary.LittleEndian.Uint16(out[132:]), binary.LittleEndian.Uint16(out[134:]), string(out[136:138]); g != 2 || e != 0 || vr != "UL" {
		t.Fatalf("first element = (%04X,%04X) %s", g, e, vr)
	}
	groupLength := int(binary.LittleEndian.Uint32(out[140:]))
	metaEnd := 144 + groupLength
	if string(out[metaEnd:]) != "DS" {
		t.Errorf("group length %d does not end at the data set: %q", groupLength, out[metaEnd:])
	}
	if !bytes.Contains(out[144:metaEnd], []byte(ImplicitVRLittleEndian+"\x00")) {
		t.Error("default transfer syntax missing or unpadded")
	}
	if !bytes.Contains(out[144:metaEnd], []byte("1.2.3\x00")) {
		t.Error("odd-length UID not padded")
	}
}
