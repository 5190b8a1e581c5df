// This file is part of intcode - https://github.com/db47h/intcode
//
// Copyright 2016 Denis Bernard <db047h@gmail.com>
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vm

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"

	"github.com/db47h/intcode/internal/ici"
)

// zstd frame magic number, little endian.
var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

// Decompress returns src decompressed if it starts with a zstd frame header,
// src itself otherwise.
func Decompress(src []byte) ([]byte, error) {
	if !bytes.HasPrefix(src, zstdMagic) {
		return src, nil
	}
	d, err := zstd.NewReader(nil)
	if err != nil {
		return nil, errors.Wrap(err, "zstd init failed")
	}
	defer d.Close()
	out, err := d.DecodeAll(src, nil)
	return out, errors.Wrap(err, "zstd decode failed")
}

// Load loads a program from file fileName. Files may be zstd compressed, in
// which case they are decompressed on the fly.
func Load(fileName string) (Program, error) {
	src, err := os.ReadFile(fileName)
	if err != nil {
		return nil, errors.Wrap(err, "open failed")
	}
	if src, err = Decompress(src); err != nil {
		return nil, errors.Wrap(err, fileName)
	}
	p, err := ParseBytes(src)
	if err != nil {
		return nil, errors.Wrap(err, fileName)
	}
	return p, nil
}

// Encode writes p to w in source format followed by a newline. If compress is
// true, the output is zstd compressed.
func Encode(w io.Writer, p []Cell, compress bool) (err error) {
	ew := ici.NewErrWriter(w)
	var out io.Writer = ew
	if compress {
		var z *zstd.Encoder
		z, err = zstd.NewWriter(ew)
		if err != nil {
			return errors.Wrap(err, "zstd init failed")
		}
		defer func() {
			if e := z.Close(); err == nil && e != nil {
				err = errors.Wrap(e, "zstd close failed")
			}
		}()
		out = z
	}
	if err = ici.WriteCells(out, p, ','); err != nil {
		return err
	}
	_, err = out.Write([]byte{'\n'})
	if err == nil {
		err = ew.Err
	}
	return err
}

// Save saves a Cell slice to file fileName in source format, zstd compressed
// if compress is true.
func Save(fileName string, p []Cell, compress bool) error {
	f, err := os.Create(fileName)
	if err != nil {
		return errors.Wrap(err, "create failed")
	}
	w := bufio.NewWriter(f)
	defer func() {
		if err != nil {
			f.Close()
			// delete file on error
			os.Remove(fileName)
		}
	}()
	if err = Encode(w, p, compress); err != nil {
		return errors.Wrap(err, "save failed")
	}
	if err = w.Flush(); err != nil {
		return errors.Wrap(err, "save failed")
	}
	err = f.Close()
	return errors.Wrap(err, "save failed")
}
