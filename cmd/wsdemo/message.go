// File: cmd/wsdemo/message.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package main

import (
	"github.com/sugawarayuuta/sonnet"

	"github.com/momentics/embedded-ws/core/protocol"
)

type sensorData struct {
	Sensor string `json:"sensor"`
	Value  int64  `json:"value"`
}

type envelope struct {
	Type string     `json:"type"`
	Data sensorData `json:"data"`
}

// sensorMessage renders {"type":"message","data":{"sensor":..,"value":..}}.
func sensorMessage(sensor string, value int64) ([]byte, error) {
	return sonnet.Marshal(envelope{
		Type: "message",
		Data: sensorData{Sensor: sensor, Value: value},
	})
}

// describe labels a text payload by its JSON "type" field, if any.
func describe(text []byte) string {
	var probe struct {
		Type string `json:"type"`
	}
	if err := sonnet.Unmarshal(text, &probe); err != nil || probe.Type == "" {
		return "text"
	}
	return "json:" + probe.Type
}

func opcodeFor(text bool) byte {
	if text {
		return protocol.OpcodeText
	}
	return protocol.OpcodeBinary
}
