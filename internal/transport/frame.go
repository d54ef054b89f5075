package transport

import "github.com/vmihailenco/msgpack/v5"

func encodeFrame(f frame) ([]byte, error) {
	return msgpack.Marshal(f)
}

func decodeFrame(data []byte, f *frame) error {
	return msgpack.Unmarshal(data, f)
}
