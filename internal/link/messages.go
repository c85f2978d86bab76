package link

import (
	"github.com/tinylib/msgp/msgp"
)

// Control payloads are MessagePack maps with string keys so that fields can
// be added without breaking older peers.

// Header opens a transfer.
type Header struct {
	Name string `msg:"name"`
	Size int64  `msg:"size"`
}

// Trailer closes a transfer with the xxhash64 of all data bytes.
type Trailer struct {
	Sum uint64 `msg:"sum"`
}

// Ack is the receiver's verdict. Code 0 means accepted; negative codes are
// the values of the Code constants.
type Ack struct {
	Msg  string `msg:"msg"`
	Code int    `msg:"code"`
}

// MarshalMsg implements msgp.Marshaler.
func (z *Header) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.AppendMapHeader(b, 2)
	o = msgp.AppendString(o, "name")
	o = msgp.AppendString(o, z.Name)
	o = msgp.AppendString(o, "size")
	o = msgp.AppendInt64(o, z.Size)
	return o, nil
}

// UnmarshalMsg implements msgp.Unmarshaler.
func (z *Header) UnmarshalMsg(bts []byte) ([]byte, error) {
	return unmarshalMap(bts, func(key string, bts []byte) ([]byte, error) {
		var err error
		switch key {
		case "name":
			z.Name, bts, err = msgp.ReadStringBytes(bts)
			return bts, wrapField(err, "Name")
		case "size":
			z.Size, bts, err = msgp.ReadInt64Bytes(bts)
			return bts, wrapField(err, "Size")
		default:
			return msgp.Skip(bts)
		}
	})
}

// MarshalMsg implements msgp.Marshaler.
func (z *Trailer) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.AppendMapHeader(b, 1)
	o = msgp.AppendString(o, "sum")
	o = msgp.AppendUint64(o, z.Sum)
	return o, nil
}

// UnmarshalMsg implements msgp.Unmarshaler.
func (z *Trailer) UnmarshalMsg(bts []byte) ([]byte, error) {
	return unmarshalMap(bts, func(key string, bts []byte) ([]byte, error) {
		var err error
		if key == "sum" {
			z.Sum, bts, err = msgp.ReadUint64Bytes(bts)
			return bts, wrapField(err, "Sum")
		}
		return msgp.Skip(bts)
	})
}

// MarshalMsg implements msgp.Marshaler.
func (z *Ack) MarshalMsg(b []byte) ([]byte, error) {
	o := msgp.AppendMapHeader(b, 2)
	o = msgp.AppendString(o, "code")
	o = msgp.AppendInt(o, z.Code)
	o = msgp.AppendString(o, "msg")
	o = msgp.AppendString(o, z.Msg)
	return o, nil
}

// UnmarshalMsg implements msgp.Unmarshaler.
func (z *Ack) UnmarshalMsg(bts []byte) ([]byte, error) {
	return unmarshalMap(bts, func(key string, bts []byte) ([]byte, error) {
		var err error
		switch key {
		case "code":
			z.Code, bts, err = msgp.ReadIntBytes(bts)
			return bts, wrapField(err, "Code")
		case "msg":
			z.Msg, bts, err = msgp.ReadStringBytes(bts)
			return bts, wrapField(err, "Msg")
		default:
			return msgp.Skip(bts)
		}
	})
}

// unmarshalMap walks a MessagePack map, handing each value to field.
func unmarshalMap(bts []byte, field func(key string, bts []byte) ([]byte, error)) ([]byte, error) {
	n, bts, err := msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		return bts, msgp.WrapError(err)
	}
	for range n {
		var key []byte
		key, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			return bts, msgp.WrapError(err)
		}
		bts, err = field(string(key), bts)
		if err != nil {
			return bts, err
		}
	}
	return bts, nil
}

func wrapField(err error, name string) error {
	if err == nil {
		return nil
	}
	return msgp.WrapError(err, name)
}
