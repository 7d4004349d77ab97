// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/assetmap

/*
Package serialized loads the object graph stored in SerializedFile entries.

Parse reads the header and metadata of one file (format versions 17 and
newer): the type table, the object table, script references, externals and
reference types. Object payloads are decoded lazily through a Decoder:

	f, err := serialized.Parse("CAB-5f3c", data)
	s := serialized.NewSession()
	idx, _ := s.AddFile(f)
	for _, info := range f.Objects {
		obj, err := serialized.BuiltinDecoder{}.Decode(f.ObjectReader(idx, info))
		...
		s.Put(obj)
	}

References between objects are weak: PPtr values are resolved against the
objects present in a Session and a miss is an expected outcome.
*/
package serialized
