package ble

import (
	"context"
	"fmt"
	"strings"

	"tinygo.org/x/bluetooth"
)

// Adapter implements Radio over the host's Bluetooth adapter via BlueZ.
//
// A single Adapter must not scan and transact concurrently; the coordinator
// enforces this through its pause protocol.
type Adapter struct {
	adapter    *bluetooth.Adapter
	notifyUUID bluetooth.UUID
	writeUUID  bluetooth.UUID
	logger     Logger
}

// NewAdapter enables the default host adapter and prepares the Govee
// characteristic UUIDs.
func NewAdapter() (*Adapter, error) {
	adapter := bluetooth.DefaultAdapter
	if err := adapter.Enable(); err != nil {
		return nil, fmt.Errorf("enabling bluetooth adapter: %w", err)
	}

	notifyUUID, err := bluetooth.ParseUUID(NotifyCharacteristicUUID)
	if err != nil {
		return nil, fmt.Errorf("parsing notify characteristic uuid: %w", err)
	}
	writeUUID, err := bluetooth.ParseUUID(WriteCharacteristicUUID)
	if err != nil {
		return nil, fmt.Errorf("parsing write characteristic uuid: %w", err)
	}

	return &Adapter{
		adapter:    adapter,
		notifyUUID: notifyUUID,
		writeUUID:  writeUUID,
		logger:     noopLogger{},
	}, nil
}

// SetLogger sets the logger for the adapter.
func (a *Adapter) SetLogger(logger Logger) {
	a.logger = logger
}

// Scan runs a passive scan until the context is cancelled, delivering every
// advertisement carrying a Govee manufacturer payload to fn.
func (a *Adapter) Scan(ctx context.Context, fn func(Advertisement)) error {
	stop := make(chan struct{})
	defer close(stop)

	go func() {
		select {
		case <-ctx.Done():
			if err := a.adapter.StopScan(); err != nil {
				a.logger.Warn("stopping scan", "error", err)
			}
		case <-stop:
		}
	}()

	err := a.adapter.Scan(func(_ *bluetooth.Adapter, result bluetooth.ScanResult) {
		var mdata []byte
		for _, element := range result.ManufacturerData() {
			if element.CompanyID == GoveeManufacturerID {
				mdata = element.Data
				break
			}
		}
		if mdata == nil {
			return
		}

		fn(Advertisement{
			Address:          result.Address.String(),
			Name:             result.LocalName(),
			ManufacturerData: mdata,
			RSSI:             result.RSSI,
		})
	})
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("%w: %w", ErrScanFailed, err)
	}
	return nil
}

// SendFrames opens a connection to the device, writes each frame in order to
// the Govee command characteristic, and disconnects. Notifications on the
// response characteristic are logged at debug level.
func (a *Adapter) SendFrames(ctx context.Context, address string, frames [][]byte) error {
	mac, err := bluetooth.ParseMAC(strings.ToUpper(address))
	if err != nil {
		return fmt.Errorf("%w: parsing address %q: %w", ErrConnectFailed, address, err)
	}

	dev, err := a.adapter.Connect(
		bluetooth.Address{MACAddress: bluetooth.MACAddress{MAC: mac}},
		bluetooth.ConnectionParams{},
	)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrConnectFailed, address, err)
	}
	defer func() {
		if err := dev.Disconnect(); err != nil {
			a.logger.Warn("disconnecting", "address", address, "error", err)
		}
	}()

	notifyChar, writeChar, err := a.discoverCharacteristics(dev)
	if err != nil {
		return err
	}

	// Notification subscription mirrors the vendor app's handshake; the
	// payloads are not interpreted.
	if err := notifyChar.EnableNotifications(func(buf []byte) {
		a.logger.Debug("device notification", "address", address, "data", fmt.Sprintf("%X", buf))
	}); err != nil {
		a.logger.Warn("enabling notifications", "address", address, "error", err)
	}

	a.logger.Info("sending frames", "address", address, "count", len(frames))
	for i, frame := range frames {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: transaction cancelled: %w", ErrWriteFailed, err)
		}
		if _, err := writeChar.WriteWithoutResponse(frame); err != nil {
			return fmt.Errorf("%w: frame %d to %s: %w", ErrWriteFailed, i, address, err)
		}
	}
	return nil
}

// discoverCharacteristics locates the Govee notify and write characteristics
// on a connected device.
func (a *Adapter) discoverCharacteristics(dev bluetooth.Device) (notify, write bluetooth.DeviceCharacteristic, err error) {
	services, err := dev.DiscoverServices(nil)
	if err != nil {
		return notify, write, fmt.Errorf("%w: discovering services: %w", ErrCharacteristicNotFound, err)
	}

	var haveNotify, haveWrite bool
	for _, svc := range services {
		chars, err := svc.DiscoverCharacteristics(nil)
		if err != nil {
			continue
		}
		for _, ch := range chars {
			switch ch.UUID() {
			case a.notifyUUID:
				notify, haveNotify = ch, true
			case a.writeUUID:
				write, haveWrite = ch, true
			}
		}
	}
	if !haveNotify || !haveWrite {
		return notify, write, ErrCharacteristicNotFound
	}
	return notify, write, nil
}
