// Package wasmtest assembles tiny, valid WebAssembly binaries for tests.
package wasmtest

const tagSection = "hotload.tag"

var header = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

// Module returns an empty module carrying tag in a custom section, so that
// different tags produce different bytes and digests.
func Module(tag string) []byte {
	out := append([]byte(nil), header...)
	return append(out, customSection(tag)...)
}

// ModuleWithImport returns a module that imports function fn from module
// from and exports a no-op function "run".
func ModuleWithImport(tag, from, fn string) []byte {
	out := append([]byte(nil), header...)

	// type 0: func() -> ()
	out = append(out, section(0x01, []byte{0x01, 0x60, 0x00, 0x00})...)

	imports := []byte{0x01}
	imports = append(imports, name(from)...)
	imports = append(imports, name(fn)...)
	imports = append(imports, 0x00, 0x00) // func, type 0
	out = append(out, section(0x02, imports)...)

	// one defined function of type 0
	out = append(out, section(0x03, []byte{0x01, 0x00})...)

	exports := []byte{0x01}
	exports = append(exports, name("run")...)
	exports = append(exports, 0x00, 0x01) // func index 1, after the import
	out = append(out, section(0x07, exports)...)

	// body: no locals, end
	out = append(out, section(0x0a, []byte{0x01, 0x02, 0x00, 0x0b})...)

	return append(out, customSection(tag)...)
}

// ModuleWithExport returns a module without imports exporting a no-op
// function named fn.
func ModuleWithExport(tag, fn string) []byte {
	out := append([]byte(nil), header...)
	out = append(out, section(0x01, []byte{0x01, 0x60, 0x00, 0x00})...)
	out = append(out, section(0x03, []byte{0x01, 0x00})...)

	exports := []byte{0x01}
	exports = append(exports, name(fn)...)
	exports = append(exports, 0x00, 0x00)
	out = append(out, section(0x07, exports)...)

	out = append(out, section(0x0a, []byte{0x01, 0x02, 0x00, 0x0b})...)
	return append(out, customSection(tag)...)
}

func customSection(tag string) []byte {
	content := name(tagSection)
	content = append(content, tag...)
	return section(0x00, content)
}

func section(id byte, content []byte) []byte {
	out := []byte{id}
	out = append(out, uleb128(uint32(len(content)))...)
	return append(out, content...)
}

func name(s string) []byte {
	return append(uleb128(uint32(len(s))), s...)
}

func uleb128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}
