package device

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"tadbeer.com/hrms/utils"
)

// ZKTeco standalone-SDK command words. Same values across the terminal
// family regardless of firmware generation.
const (
	cmdConnect       = 1000
	cmdExit          = 1001
	cmdEnableDevice  = 1002
	cmdDisableDevice = 1003
	cmdAuth          = 1102
	cmdPrepareData   = 1500
	cmdData          = 1501
	cmdFreeData      = 1502
	cmdDataWrrq      = 1503
	cmdOptionsRrq    = 11

	cmdAckOK      = 2000
	cmdAckError   = 2001
	cmdAckData    = 2002
	cmdAckUnauth  = 2005
	cmdAckUnknown = 0xffff
)

const attLogRecordSize = 40

var tcpMagic = []byte{0x50, 0x50, 0x82, 0x7d}

type zkPacket struct {
	Command uint16
	Session uint16
	Reply   uint16
	Data    []byte
}

// zkChecksum is the ones'-complement word sum over command, session,
// reply and data (checksum field itself counted as zero).
func zkChecksum(p zkPacket) uint16 {
	buf := make([]byte, 8+len(p.Data))
	binary.LittleEndian.PutUint16(buf[0:], p.Command)
	binary.LittleEndian.PutUint16(buf[2:], 0)
	binary.LittleEndian.PutUint16(buf[4:], p.Session)
	binary.LittleEndian.PutUint16(buf[6:], p.Reply)
	copy(buf[8:], p.Data)

	var sum uint32
	for i := 0; i+1 < len(buf); i += 2 {
		sum += uint32(binary.LittleEndian.Uint16(buf[i:]))
	}
	if len(buf)%2 == 1 {
		sum += uint32(buf[len(buf)-1])
	}
	for sum > 0xffff {
		sum = (sum & 0xffff) + (sum >> 16)
	}
	return uint16(^sum) & 0xffff
}

// marshalPacket frames a payload for the TCP transport: magic, payload
// length, then the 8-byte payload header and data.
func marshalPacket(p zkPacket) []byte {
	payload := make([]byte, 8+len(p.Data))
	binary.LittleEndian.PutUint16(payload[0:], p.Command)
	binary.LittleEndian.PutUint16(payload[2:], zkChecksum(p))
	binary.LittleEndian.PutUint16(payload[4:], p.Session)
	binary.LittleEndian.PutUint16(payload[6:], p.Reply)
	copy(payload[8:], p.Data)

	out := make([]byte, 8+len(payload))
	copy(out, tcpMagic)
	binary.LittleEndian.PutUint32(out[4:], uint32(len(payload)))
	copy(out[8:], payload)
	return out
}

func unmarshalPacket(payload []byte) (zkPacket, error) {
	if len(payload) < 8 {
		return zkPacket{}, fmt.Errorf("short payload: %d bytes", len(payload))
	}
	return zkPacket{
		Command: binary.LittleEndian.Uint16(payload[0:]),
		Session: binary.LittleEndian.Uint16(payload[4:]),
		Reply:   binary.LittleEndian.Uint16(payload[6:]),
		Data:    payload[8:],
	}, nil
}

// decodeZKTime unpacks the terminal's packed calendar encoding.
func decodeZKTime(v uint32) time.Time {
	second := int(v % 60)
	v /= 60
	minute := int(v % 60)
	v /= 60
	hour := int(v % 24)
	v /= 24
	day := int(v%31) + 1
	v /= 31
	month := time.Month(v%12) + 1
	v /= 12
	year := int(v) + 2000
	return time.Date(year, month, day, hour, minute, second, 0, utils.SiteTZ)
}

func encodeZKTime(t time.Time) uint32 {
	t = t.In(utils.SiteTZ)
	v := uint32(t.Year() - 2000)
	v = v*12 + uint32(t.Month()-1)
	v = v*31 + uint32(t.Day()-1)
	v = v*24 + uint32(t.Hour())
	v = v*60 + uint32(t.Minute())
	v = v*60 + uint32(t.Second())
	return v
}

// commKeyResponse derives the CMD_AUTH payload from the device comm key
// and the session id handed out by CMD_CONNECT.
func commKeyResponse(key int, sessionID uint16) []byte {
	var k uint32
	for i := 0; i < 32; i++ {
		k <<= 1
		if key&(1<<i) != 0 {
			k |= 1
		}
	}
	k += uint32(sessionID)

	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, k)
	b[0] ^= 'Z'
	b[1] ^= 'K'
	b[2] ^= 'S'
	b[3] ^= 'O'

	// swap the two 16-bit halves
	b[0], b[1], b[2], b[3] = b[2], b[3], b[0], b[1]

	const ticks = 50
	b[0] ^= ticks
	b[1] ^= ticks
	b[2] = ticks
	b[3] ^= ticks
	return b
}

// parseAttLog decodes the bulk attendance buffer: 40-byte records of
// uid(2) subject(24) state(1) packed-time(4) punch(1) padding(8).
func parseAttLog(data []byte) ([]RawEvent, error) {
	// Bulk reads prefix the buffer with its total size.
	if len(data) >= 4 && int(binary.LittleEndian.Uint32(data)) == len(data)-4 {
		data = data[4:]
	}
	if len(data)%attLogRecordSize != 0 {
		return nil, fmt.Errorf("attendance buffer not a multiple of %d: %d bytes", attLogRecordSize, len(data))
	}

	events := make([]RawEvent, 0, len(data)/attLogRecordSize)
	for off := 0; off < len(data); off += attLogRecordSize {
		rec := data[off : off+attLogRecordSize]
		subject := strings.TrimRight(string(rec[2:26]), "\x00")
		events = append(events, RawEvent{
			SubjectUID: subject,
			State:      int(rec[26]),
			Timestamp:  decodeZKTime(binary.LittleEndian.Uint32(rec[27:31])),
			Punch:      int(rec[31]),
		})
	}
	return events, nil
}
