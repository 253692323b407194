package nnue

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// Weight file format: a flat memory image of the Network struct, preceded
// by a small header so a mismatched build fails loudly instead of silently
// misreading the blob.
const (
	MagicNumber = 0x414B4D42 // "AKMB"
	Version     = 1
)

// FileHeader identifies and validates a weight blob before the raw arrays
// are read.
type FileHeader struct {
	Magic   uint32
	Version uint32
	Hidden  uint32
	Input   uint32
}

// LoadWeights loads network weights from a file on disk.
func (n *Network) LoadWeights(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open weights file: %w", err)
	}
	defer f.Close()
	return n.LoadWeightsFromReader(f)
}

// SaveWeights writes the network to filename in the format LoadWeights
// reads back.
func (n *Network) SaveWeights(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create weights file: %w", err)
	}
	defer f.Close()

	header := FileHeader{Magic: MagicNumber, Version: Version, Hidden: Hidden, Input: InputSize}
	if err := binary.Write(f, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, &n.FeatureWeights); err != nil {
		return fmt.Errorf("write feature weights: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, &n.FeatureBias); err != nil {
		return fmt.Errorf("write feature bias: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, &n.OutputWeights); err != nil {
		return fmt.Errorf("write output weights: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, &n.OutputBias); err != nil {
		return fmt.Errorf("write output bias: %w", err)
	}
	return nil
}

// LoadWeightsFromReader loads network weights from an arbitrary reader;
// LoadWeights calls it with the opened file.
func (n *Network) LoadWeightsFromReader(r io.Reader) error {
	var header FileHeader
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if header.Magic != MagicNumber {
		return fmt.Errorf("invalid weights magic: expected %x, got %x", MagicNumber, header.Magic)
	}
	if header.Version != Version {
		return fmt.Errorf("unsupported weights version: expected %d, got %d", Version, header.Version)
	}
	if header.Hidden != Hidden || header.Input != InputSize {
		return fmt.Errorf("weights shape mismatch: expected %dx%d, got %dx%d", InputSize, Hidden, header.Input, header.Hidden)
	}

	if err := binary.Read(r, binary.LittleEndian, &n.FeatureWeights); err != nil {
		return fmt.Errorf("read feature weights: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &n.FeatureBias); err != nil {
		return fmt.Errorf("read feature bias: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &n.OutputWeights); err != nil {
		return fmt.Errorf("read output weights: %w", err)
	}
	if err := binary.Read(r, binary.LittleEndian, &n.OutputBias); err != nil {
		return fmt.Errorf("read output bias: %w", err)
	}
	return nil
}
