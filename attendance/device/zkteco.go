package device

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"tadbeer.com/hrms/attendance/model"
)

// zktecoAdapter speaks the standalone-SDK TCP protocol (default port
// 4370) directly to the terminal.
type zktecoAdapter struct {
	device  model.Device
	timeout time.Duration

	conn    net.Conn
	session uint16
	replyID uint16
}

func newZKTeco(d model.Device, timeout time.Duration) *zktecoAdapter {
	return &zktecoAdapter{device: d, timeout: timeout}
}

func (z *zktecoAdapter) Connect(ctx context.Context) error {
	dialer := net.Dialer{Timeout: z.timeout}
	addr := fmt.Sprintf("%s:%d", z.device.IP, z.device.Port)

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return unreachable(z.device, err)
	}
	z.conn = conn
	z.session = 0
	z.replyID = 0

	resp, err := z.roundTrip(cmdConnect, nil)
	if err != nil {
		z.close()
		return unreachable(z.device, err)
	}
	z.session = resp.Session

	if resp.Command == cmdAckUnauth {
		auth, err := z.roundTrip(cmdAuth, commKeyResponse(z.device.CommKey, z.session))
		if err != nil {
			z.close()
			return unreachable(z.device, err)
		}
		if auth.Command != cmdAckOK {
			z.close()
			return unreachable(z.device, fmt.Errorf("authentication rejected (comm key)"))
		}
		return nil
	}

	if resp.Command != cmdAckOK {
		z.close()
		return unreachable(z.device, fmt.Errorf("unexpected connect reply %d", resp.Command))
	}
	return nil
}

func (z *zktecoAdapter) SetMatchingEnabled(enabled bool) error {
	if z.conn == nil {
		return unreachable(z.device, fmt.Errorf("not connected"))
	}
	cmd := uint16(cmdDisableDevice)
	var data []byte
	if enabled {
		cmd = cmdEnableDevice
	} else {
		data = []byte{0, 0}
	}
	resp, err := z.roundTrip(cmd, data)
	if err != nil {
		return unreachable(z.device, err)
	}
	if resp.Command != cmdAckOK {
		return unreachable(z.device, fmt.Errorf("device refused enable=%v: reply %d", enabled, resp.Command))
	}
	return nil
}

// FetchEvents bulk-reads the attendance buffer. Large buffers arrive as
// CMD_PREPARE_DATA followed by CMD_DATA chunks; small ones come back in
// a single CMD_DATA reply.
func (z *zktecoAdapter) FetchEvents(ctx context.Context) ([]RawEvent, error) {
	if z.conn == nil {
		return nil, unreachable(z.device, fmt.Errorf("not connected"))
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = z.conn.SetDeadline(deadline)
	}

	// 11-byte read request: type 1 = attendance records, full buffer.
	req := make([]byte, 11)
	req[0] = 0x01
	req[1] = 0x0d

	resp, err := z.roundTrip(cmdDataWrrq, req)
	if err != nil {
		return nil, unreachable(z.device, err)
	}

	var buf []byte
	switch resp.Command {
	case cmdData:
		buf = resp.Data
	case cmdAckOK:
		// empty buffer: idle terminal, nothing to read
		return nil, nil
	case cmdPrepareData:
		if len(resp.Data) < 4 {
			return nil, unreachable(z.device, fmt.Errorf("short prepare-data reply"))
		}
		size := int(binary.LittleEndian.Uint32(resp.Data))
		buf = make([]byte, 0, size)
		for len(buf) < size {
			chunk, err := z.readPacket()
			if err != nil {
				return nil, unreachable(z.device, err)
			}
			switch chunk.Command {
			case cmdData:
				buf = append(buf, chunk.Data...)
			case cmdAckOK:
				// device finished early; fall through to parse
				size = len(buf)
			default:
				return nil, unreachable(z.device, fmt.Errorf("unexpected reply %d during bulk read", chunk.Command))
			}
		}
		if _, err := z.roundTrip(cmdFreeData, nil); err != nil {
			return nil, unreachable(z.device, err)
		}
	default:
		return nil, unreachable(z.device, fmt.Errorf("unexpected read reply %d", resp.Command))
	}

	events, err := parseAttLog(buf)
	if err != nil {
		return nil, unreachable(z.device, err)
	}
	return events, nil
}

func (z *zktecoAdapter) Disconnect() error {
	if z.conn == nil {
		return nil
	}
	_, err := z.roundTrip(cmdExit, nil)
	z.close()
	if err != nil {
		return unreachable(z.device, err)
	}
	return nil
}

// SerialNumber reads the terminal's serial via the options table. Used by
// the connect-only health probe for a human-readable confirmation.
func (z *zktecoAdapter) SerialNumber() (string, error) {
	resp, err := z.roundTrip(cmdOptionsRrq, []byte("~SerialNumber\x00"))
	if err != nil {
		return "", unreachable(z.device, err)
	}
	if resp.Command != cmdAckOK && resp.Command != cmdAckData {
		return "", unreachable(z.device, fmt.Errorf("options read rejected: reply %d", resp.Command))
	}
	// reply is "~SerialNumber=XXXX\x00"
	s := string(resp.Data)
	for i := 0; i < len(s); i++ {
		if s[i] == '=' {
			end := len(s)
			for j := i + 1; j < len(s); j++ {
				if s[j] == 0 {
					end = j
					break
				}
			}
			return s[i+1 : end], nil
		}
	}
	return "", nil
}

func (z *zktecoAdapter) roundTrip(cmd uint16, data []byte) (zkPacket, error) {
	z.replyID++
	pkt := zkPacket{Command: cmd, Session: z.session, Reply: z.replyID, Data: data}

	if z.timeout > 0 {
		_ = z.conn.SetDeadline(time.Now().Add(z.timeout))
	}
	if _, err := z.conn.Write(marshalPacket(pkt)); err != nil {
		return zkPacket{}, fmt.Errorf("write %d: %w", cmd, err)
	}
	return z.readPacket()
}

func (z *zktecoAdapter) readPacket() (zkPacket, error) {
	header := make([]byte, 8)
	if _, err := io.ReadFull(z.conn, header); err != nil {
		return zkPacket{}, fmt.Errorf("read header: %w", err)
	}
	if header[0] != tcpMagic[0] || header[1] != tcpMagic[1] || header[2] != tcpMagic[2] || header[3] != tcpMagic[3] {
		return zkPacket{}, fmt.Errorf("bad framing magic % x", header[:4])
	}
	size := binary.LittleEndian.Uint32(header[4:])
	if size < 8 || size > 16<<20 {
		return zkPacket{}, fmt.Errorf("implausible payload size %d", size)
	}

	payload := make([]byte, size)
	if _, err := io.ReadFull(z.conn, payload); err != nil {
		return zkPacket{}, fmt.Errorf("read payload: %w", err)
	}
	return unmarshalPacket(payload)
}

func (z *zktecoAdapter) close() {
	if z.conn != nil {
		_ = z.conn.Close()
		z.conn = nil
	}
}
