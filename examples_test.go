package encstream_test

import (
	"bytes"
	"fmt"
	"io"
	"log"

	encstream "github.com/antoniusf/encrypted-stream"
)

func Example() {
	key, err := encstream.GenerateKey(nil)
	if err != nil {
		log.Fatal(err)
	}

	// Present a plaintext source as an encrypted, seekable stream.
	source := bytes.NewReader([]byte("attack at dawn"))
	reader, err := encstream.NewEncryptingReader(source, key)
	if err != nil {
		log.Fatal(err)
	}
	defer reader.Close()

	fmt.Printf("encrypted size: %d\n", reader.OutputSize())

	encrypted, err := io.ReadAll(reader)
	if err != nil {
		log.Fatal(err)
	}

	// Feed the ciphertext, in order, to a decrypting sink.
	var plaintext bytes.Buffer
	writer, err := encstream.NewDecryptingWriter(&plaintext, key)
	if err != nil {
		log.Fatal(err)
	}
	defer writer.Close()

	if _, err := writer.Write(encrypted); err != nil {
		log.Fatal(err)
	}
	if err := writer.EndStream(); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("decrypted: %s\n", plaintext.Bytes())

	// Output:
	// encrypted size: 54
	// decrypted: attack at dawn
}

func ExampleEncryptingReader_Seek() {
	key, err := encstream.GenerateKey(nil)
	if err != nil {
		log.Fatal(err)
	}

	source := bytes.NewReader(make([]byte, 3_000_000))
	reader, err := encstream.NewEncryptingReader(source, key)
	if err != nil {
		log.Fatal(err)
	}
	defer reader.Close()

	// Resume an interrupted upload from an arbitrary offset.
	offset, err := reader.Seek(1_500_000, io.SeekStart)
	if err != nil {
		log.Fatal(err)
	}
	rest, err := io.ReadAll(reader)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("resumed at %d, %d bytes remaining\n", offset, len(rest))

	// Output:
	// resumed at 1500000, 1500072 bytes remaining
}
