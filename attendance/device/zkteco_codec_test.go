package device

import (
	"encoding/binary"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tadbeer.com/hrms/utils"
)

func TestMarshalUnmarshalPacket(t *testing.T) {
	p := zkPacket{
		Command: cmdConnect,
		Session: 0x1234,
		Reply:   7,
		Data:    []byte{0xde, 0xad, 0xbe, 0xef},
	}

	wire := marshalPacket(p)

	// TCP framing: magic then payload length.
	assert.Equal(t, tcpMagic, wire[:4])
	assert.Equal(t, uint32(8+len(p.Data)), binary.LittleEndian.Uint32(wire[4:8]))

	got, err := unmarshalPacket(wire[8:])
	require.NoError(t, err)
	assert.Equal(t, p.Command, got.Command)
	assert.Equal(t, p.Session, got.Session)
	assert.Equal(t, p.Reply, got.Reply)
	assert.Equal(t, p.Data, got.Data)
}

func TestUnmarshalPacketShortPayload(t *testing.T) {
	_, err := unmarshalPacket([]byte{1, 2, 3})
	require.Error(t, err)
}

func TestZKChecksumVerifies(t *testing.T) {
	// A packet checksummed on the way out must sum back to the same value
	// when recomputed over the received fields.
	p := zkPacket{Command: cmdDataWrrq, Session: 0xbeef, Reply: 3, Data: []byte{1, 0x0d, 0, 0, 0, 0, 0, 0, 0, 0, 0}}
	wire := marshalPacket(p)

	sent := binary.LittleEndian.Uint16(wire[10:12])
	got, err := unmarshalPacket(wire[8:])
	require.NoError(t, err)
	assert.Equal(t, sent, zkChecksum(got))
}

func TestZKTimeRoundTrip(t *testing.T) {
	tests := []time.Time{
		time.Date(2024, 3, 1, 8, 55, 0, 0, utils.SiteTZ),
		time.Date(2024, 3, 1, 18, 1, 59, 0, utils.SiteTZ),
		time.Date(2000, 1, 1, 0, 0, 0, 0, utils.SiteTZ),
		time.Date(2030, 12, 31, 23, 59, 59, 0, utils.SiteTZ),
	}

	for _, want := range tests {
		got := decodeZKTime(encodeZKTime(want))
		assert.True(t, got.Equal(want), "round trip %v -> %v", want, got)
	}
}

func TestDecodeZKTimeKnownValue(t *testing.T) {
	// 2000-01-01 00:00:01 is one tick past the epoch of the packed format.
	got := decodeZKTime(1)
	assert.Equal(t, 2000, got.Year())
	assert.Equal(t, time.January, got.Month())
	assert.Equal(t, 1, got.Day())
	assert.Equal(t, 1, got.Second())
}

func attLogRecord(subject string, ts time.Time, state, punch byte) []byte {
	rec := make([]byte, attLogRecordSize)
	copy(rec[2:26], subject)
	rec[26] = state
	binary.LittleEndian.PutUint32(rec[27:31], encodeZKTime(ts))
	rec[31] = punch
	return rec
}

func TestParseAttLog(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 8, 55, 0, 0, utils.SiteTZ)
	t2 := time.Date(2024, 3, 1, 18, 1, 0, 0, utils.SiteTZ)

	var data []byte
	data = append(data, attLogRecord("7", t1, 1, 0)...)
	data = append(data, attLogRecord("12", t2, 15, 1)...)

	events, err := parseAttLog(data)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "7", events[0].SubjectUID)
	assert.True(t, events[0].Timestamp.Equal(t1))
	assert.Equal(t, 1, events[0].State)
	assert.Equal(t, 0, events[0].Punch)

	assert.Equal(t, "12", events[1].SubjectUID)
	assert.True(t, events[1].Timestamp.Equal(t2))
	assert.Equal(t, 15, events[1].State)
	assert.Equal(t, 1, events[1].Punch)
}

func TestParseAttLogSizePrefix(t *testing.T) {
	t1 := time.Date(2024, 3, 1, 8, 55, 0, 0, utils.SiteTZ)
	body := attLogRecord("7", t1, 1, 0)

	data := make([]byte, 4+len(body))
	binary.LittleEndian.PutUint32(data, uint32(len(body)))
	copy(data[4:], body)

	events, err := parseAttLog(data)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "7", events[0].SubjectUID)
}

func TestParseAttLogRejectsTornBuffer(t *testing.T) {
	_, err := parseAttLog(make([]byte, attLogRecordSize+3))
	require.Error(t, err)
}

func TestParseAttLogEmpty(t *testing.T) {
	events, err := parseAttLog(nil)
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestCommKeyResponse(t *testing.T) {
	// Known vectors: bit-reversed key plus session, XOR "ZKSO",
	// halves swapped, then the tick transform with byte 2 fixed at 50.
	tests := []struct {
		name    string
		key     int
		session uint16
		want    []byte
	}{
		{
			name:    "no comm key",
			key:     0,
			session: 0,
			want:    []byte{0x61, 0x7d, 0x32, 0x79},
		},
		{
			name:    "key 1234 session 1",
			key:     1234,
			session: 1,
			want:    []byte{0x41, 0x36, 0x32, 0x79},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := commKeyResponse(tt.key, tt.session)
			require.Len(t, got, 4)
			assert.Equal(t, tt.want, got)
			// tick byte is always fixed
			assert.Equal(t, byte(50), got[2])
		})
	}
}
