package cpp

// runtimePreamble returns the binary-reading helpers, bounds checks, and
// error types every generated header needs. The safe-mode Result<T>
// template is only emitted when the generated code actually uses it.
func runtimePreamble(withResult bool) string {
	out := `// Runtime helpers: bounds-checked binary readers and the generated
// error taxonomy. These are the only functions a generated
// reader calls outside of its own peers.

struct OutOfBounds : std::exception {
    std::string message;
    explicit OutOfBounds(std::string m) : message(std::move(m)) {}
    const char* what() const noexcept override { return message.c_str(); }
};

struct ConstraintViolation : std::exception {
    std::string message;
    explicit ConstraintViolation(std::string m) : message(std::move(m)) {}
    const char* what() const noexcept override { return message.c_str(); }
};

struct UnmatchedChoice : std::exception {
    std::string message;
    explicit UnmatchedChoice(std::string m) : message(std::move(m)) {}
    const char* what() const noexcept override { return message.c_str(); }
};

struct InvalidBitWidth : std::exception {
    std::string message;
    explicit InvalidBitWidth(std::string m) : message(std::move(m)) {}
    const char* what() const noexcept override { return message.c_str(); }
};

inline void require_bytes(const uint8_t* cursor, const uint8_t* end, size_t n) {
    if (static_cast<size_t>(end - cursor) < n) {
        throw OutOfBounds("out of bounds: need " + std::to_string(n) + " bytes");
    }
}

inline bool try_require_bytes(const uint8_t* cursor, const uint8_t* end, size_t n) {
    return static_cast<size_t>(end - cursor) >= n;
}

inline uint8_t read_uint8(const uint8_t*& cursor, const uint8_t* end) {
    require_bytes(cursor, end, 1);
    return *cursor++;
}

inline bool try_read_uint8(const uint8_t*& cursor, const uint8_t* end, uint8_t& out) {
    if (!try_require_bytes(cursor, end, 1)) return false;
    out = *cursor++;
    return true;
}
`
	for _, w := range []int{16, 32, 64} {
		out += readerPair(w, false) + readerPair(w, true)
	}
	out += `
inline std::string read_cstring(const uint8_t*& cursor, const uint8_t* end) {
    std::string s;
    for (;;) {
        uint8_t b = read_uint8(cursor, end);
        if (b == 0) break;
        s.push_back(static_cast<char>(b));
    }
    return s;
}

inline bool try_read_cstring(const uint8_t*& cursor, const uint8_t* end, std::string& out) {
    std::string s;
    for (;;) {
        uint8_t b;
        if (!try_read_uint8(cursor, end, b)) return false;
        if (b == 0) break;
        s.push_back(static_cast<char>(b));
    }
    out = std::move(s);
    return true;
}

inline uint64_t read_bits(const uint8_t*& cursor, const uint8_t* end, size_t num_bytes) {
    uint64_t v = 0;
    for (size_t i = 0; i < num_bytes; ++i) {
        v |= static_cast<uint64_t>(read_uint8(cursor, end)) << (8 * i);
    }
    return v;
}
`
	if withResult {
		out += `
template <typename T>
struct Result {
    T value{};
    bool ok = false;
    std::string error_message;
};
`
	}
	return out
}

func readerPair(width int, signed bool) string {
	prefix := "uint"
	if signed {
		prefix = "int"
	}
	uname := func(le bool) string {
		order := "le"
		if !le {
			order = "be"
		}
		return "read_" + prefix + itoaw(width) + "_" + order
	}
	cty := prefix + itoaw(width) + "_t"
	uty := "uint" + itoaw(width) + "_t"

	body := ""
	for _, le := range []bool{true, false} {
		name := uname(le)
		shiftExpr := shiftAssembly(width, le)
		body += `
inline ` + cty + ` ` + name + `(const uint8_t*& cursor, const uint8_t* end) {
    require_bytes(cursor, end, ` + itoaw(width/8) + `);
    ` + uty + ` v = ` + shiftExpr + `;
    cursor += ` + itoaw(width/8) + `;
    return static_cast<` + cty + `>(v);
}

inline bool try_` + name + `(const uint8_t*& cursor, const uint8_t* end, ` + cty + `& out) {
    if (!try_require_bytes(cursor, end, ` + itoaw(width/8) + `)) return false;
    ` + uty + ` v = ` + shiftExpr + `;
    cursor += ` + itoaw(width/8) + `;
    out = static_cast<` + cty + `>(v);
    return true;
}
`
	}
	return body
}

// shiftAssembly builds the little/big-endian byte-assembly expression for a
// reader of the given bit width, reading directly from cursor[0..n).
func shiftAssembly(width int, littleEndian bool) string {
	n := width / 8
	expr := ""
	for i := 0; i < n; i++ {
		byteIdx := i
		shift := i * 8
		if !littleEndian {
			byteIdx = n - 1 - i
		}
		term := "(static_cast<uint" + itoaw(width) + "_t>(cursor[" + itoaw(byteIdx) + "]) << " + itoaw(shift) + ")"
		if i == 0 {
			expr = term
		} else {
			expr += " | " + term
		}
	}
	return expr
}

func itoaw(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}
