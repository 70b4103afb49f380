package isa

import (
	"fmt"
	"strconv"
	"strings"
)

// REGISTER_COUNT is the number of integer registers.
const REGISTER_COUNT = 32

// Well known register indexes.
const (
	REG_ZERO = 0
	REG_RA   = 1
	REG_SP   = 2
	REG_A0   = 10
	REG_A7   = 17
)

var abiNames = [REGISTER_COUNT]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// RegisterName returns the ABI name of register n.
func RegisterName(n uint8) string {
	if int(n) >= REGISTER_COUNT {
		return fmt.Sprintf("x%d?", n)
	}
	return abiNames[n]
}

// ParseRegister accepts either an ABI name, "fp", or xN.
func ParseRegister(name string) (n uint8, ok bool) {
	name = strings.ToLower(name)

	if name == "fp" {
		return 8, true
	}

	for index, abi := range abiNames {
		if abi == name {
			return uint8(index), true
		}
	}

	digits, found := strings.CutPrefix(name, "x")
	if !found || len(digits) == 0 {
		return
	}
	value, err := strconv.ParseUint(digits, 10, 8)
	if err != nil || value >= REGISTER_COUNT {
		return
	}

	return uint8(value), true
}
