package caparoc

// byte2String convert register bytes to string, truncated at the first NUL
func byte2String(data []byte) string {
	if len(data)%2 != 0 {
		data = append(data, 0x00)
	}
	for i, b := range data {
		if b == 0x00 {
			return string(data[:i])
		}
	}
	return string(data)
}

func boolToU16(on bool) uint16 {
	if on {
		return 1
	}
	return 0
}
