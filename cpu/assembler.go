// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/rvsim/isa"
)

// Macro represents a macro definition in the assembly language.
type Macro struct {
	LineNo int      // Line number of the macro definition.
	Args   []string // Arguments for the macro.
	Lines  []string // Lines of macro text to expand.
}

// Predefined system equates
var sysEquate = map[string]string{
	"LINENO": "0",
}

var _cpu_defines = map[string]string{
	"XLEN":           "32",
	"REGISTER_COUNT": fmt.Sprintf("%v", isa.REGISTER_COUNT),
}

// Defines for the cpu
func Defines() iter.Seq2[string, string] {
	return maps.All(_cpu_defines)
}

// Assembler is a single pass macro assembler for RV32I.
type Assembler struct {
	Verbose bool     // If set, verbosely logs the assembler actions.
	Origin  uint32   // Address of the first assembled word.
	Opcode  []Opcode // List of generated opcodes.

	predefine map[string]string   // Predefines
	Label     map[string]uint32   // Map of labels to addresses.
	Equate    map[string]string   // Map of equates.
	Macro     map[string](*Macro) // Map of macros.

	pc        uint32 // Address of the next opcode.
	expansion int    // Count of macro expansions, for local labels.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

var (
	charRe    = regexp.MustCompile(`'\\?[^']'`)
	addressRe = regexp.MustCompile(`^(.*)\(([^()]+)\)$`)
	labelRe   = regexp.MustCompile(`^[A-Za-z_.][A-Za-z0-9_.$]*$`)
)

// valueOf returns the value of a simple word, as a 32-bit pattern.
func (asm *Assembler) valueOf(word string) (value uint32, err error) {
	if equate, ok := asm.Equate[word]; ok {
		word = equate
	}

	invert := false
	if strings.HasPrefix(word, "~") {
		invert = true
		word = word[1:]
	}

	v64, err := strconv.ParseInt(word, 0, 64)
	if err != nil || v64 > math.MaxUint32 || v64 < math.MinInt32 {
		err = ErrParseNumber(word)
		return
	}

	value = uint32(v64)
	if invert {
		value = ^value
	}

	return
}

// register returns the register number of a word.
func (asm *Assembler) register(word string) (reg uint8, err error) {
	if equate, ok := asm.Equate[word]; ok {
		word = equate
	}

	reg, ok := isa.ParseRegister(word)
	if !ok {
		err = ErrParseRegister(word)
	}

	return
}

// address parses an 'offset(register)' memory operand.
func (asm *Assembler) address(word string) (imm int32, reg uint8, err error) {
	match := addressRe.FindStringSubmatch(word)
	if match == nil {
		err = ErrParseAddress(word)
		return
	}

	if len(match[1]) != 0 {
		var value uint32
		value, err = asm.valueOf(match[1])
		if err != nil {
			return
		}
		imm = int32(value)
	}

	reg, err = asm.register(match[2])

	return
}

// target parses a branch or jump target, either a numeric offset or a
// label to be linked.
func (asm *Assembler) target(word string) (imm int32, label string, err error) {
	value, err := asm.valueOf(word)
	if err == nil {
		imm = int32(value)
		return
	}

	if !labelRe.MatchString(word) {
		return
	}

	err = nil
	label = word
	return
}

// hi20 is the upper part of value, rounded for a sign-extended lo12.
func hi20(value uint32) uint32 {
	return ((value + 0x800) >> 12) & 0xfffff
}

// lo12 is the sign-extended lower part of value.
func lo12(value uint32) int32 {
	return int32(value<<20) >> 20
}

// starlarkSplit builds a one argument integer builtin.
func starlarkSplit(name string, fn func(value uint32) int64) *starlark.Builtin {
	return starlark.NewBuiltin(name, func(thread *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var arg starlark.Value
		err := starlark.UnpackPositionalArgs(b.Name(), args, kwargs, 1, &arg)
		if err != nil {
			return nil, err
		}
		st_int, ok := arg.(starlark.Int)
		if !ok {
			return nil, fmt.Errorf("%v: integer required", b.Name())
		}
		st_int64, ok := st_int.Int64()
		if !ok {
			return nil, fmt.Errorf("%v: integer out of range", b.Name())
		}
		return starlark.MakeInt64(fn(uint32(st_int64))), nil
	})
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint32, err error) {
	defer func() {
		if err != nil {
			err = errors.Join(ErrParseExpression(expr), err)
		}
	}()

	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{
		"hi": starlarkSplit("hi", func(value uint32) int64 { return int64(hi20(value)) }),
		"lo": starlarkSplit("lo", func(value uint32) int64 { return int64(lo12(value)) }),
	}
	for label, addr := range asm.Label {
		pred[label] = starlark.MakeUint64(uint64(addr))
	}
	for key, str := range asm.Equate {
		var value32 uint32
		value32, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeUint64(uint64(value32))
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrOpcodeValueMissing
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseNumber(st_rc.String())
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok || st_int64 > math.MaxUint32 || st_int64 < math.MinInt32 {
		err = ErrParseNumber(st_rc.String())
		return
	}
	value = uint32(st_int64)
	return
}

// expandExpressions replaces each balanced $(...) with its value.
func (asm *Assembler) expandExpressions(line string) (out string, err error) {
	var sb strings.Builder

	for {
		start := strings.Index(line, "$(")
		if start < 0 {
			break
		}

		end := -1
		depth := 0
		for n := start + 1; n < len(line) && end < 0; n++ {
			switch line[n] {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					end = n
				}
			}
		}
		if end < 0 {
			err = ErrParseExpression(line[start+2:])
			return
		}

		var value uint32
		value, err = asm.parenEval(line[start+2 : end])
		if err != nil {
			return
		}

		sb.WriteString(line[:start])
		sb.WriteString(fmt.Sprintf("%#x", value))
		line = line[end+1:]
	}

	sb.WriteString(line)
	out = sb.String()

	return
}

// stripComment removes a trailing ';' or '#' comment.
func stripComment(text string) string {
	quoted := false
	for n, r := range text {
		switch {
		case r == '\'':
			quoted = !quoted
		case !quoted && (r == ';' || r == '#'):
			return text[:n]
		}
	}
	return text
}

// fields splits a line into words at white space and commas.
func fields(line string) []string {
	return strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
}

// parseLine parses a single line as an opcode.
func (asm *Assembler) parseLine(line string, lineno int) (words []string, err error) {
	// Set line number.
	asm.Equate["LINENO"] = fmt.Sprintf("%v", lineno)

	// Do 'x' evaluations
	line = charRe.ReplaceAllStringFunc(line, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			str = str[1:]
			switch str {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "0":
				str = "\000"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})

	// Do $() evaluations
	line, err = asm.expandExpressions(line)
	if err != nil {
		return
	}

	words = fields(line)

	if len(words) == 0 {
		return
	}

	// .equ CONST VALUE
	if words[0] == ".equ" {
		if len(words) != 3 {
			err = ErrEquateSyntax
			return
		}
		_, ok := asm.Equate[words[1]]
		if ok {
			err = ErrEquateDuplicate
			return
		}
		asm.Equate[words[1]] = words[2]
		words = words[:0]
		return
	}

	for n, word := range words {
		// Check for equate next
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	for strings.HasSuffix(words[0], ":") {
		label := words[0][:len(words[0])-1]
		if !labelRe.MatchString(label) {
			err = ErrParseAddress(label)
			return
		}
		_, ok := asm.Label[label]
		if ok {
			err = ErrLabelDuplicate
			return
		}

		asm.Label[label] = asm.pc
		words = words[1:]
		if len(words) == 0 {
			return
		}
	}

	// .macro processing
	macro, ok := asm.Macro[words[0]]
	if ok {
		name := words[0]

		args := words[1:]
		if len(args) != len(macro.Args) {
			err = ErrMacroSyntax
			return
		}
		// Turn args into equs
		old_equate := maps.Clone(asm.Equate)
		for n, arg := range macro.Args {
			asm.Equate[arg] = words[1+n]
		}
		defer func() { asm.Equate = old_equate }()

		asm.expansion++
		local := fmt.Sprintf("%v_%v_", name, asm.expansion)

		for n, line := range macro.Lines {
			lineno := macro.LineNo + n

			line = strings.ReplaceAll(line, "@", local)
			words, err = asm.parseLine(line, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}

			err = asm.parseWords(words, lineno)
			if err != nil {
				err = &ErrMacro{Macro: name, Line: lineno, Err: err}
				err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
				return
			}
		}

		words = nil
		return
	}

	return
}

// Parse parses an input stream into a Program.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {

	scanner := bufio.NewScanner(input)

	var line string
	var lineno int
	var macro *Macro

	defer func() {
		if err != nil {
			err = &ErrSyntax{LineNo: lineno, Line: line, Err: err}
		}
	}()

	asm.Label = make(map[string]uint32, 16)
	asm.Opcode = asm.Opcode[:0]
	asm.Macro = make(map[string](*Macro))
	asm.Equate = maps.Clone(sysEquate)
	for attr, val := range asm.predefine {
		asm.Equate[attr] = val
	}
	asm.pc = asm.Origin
	asm.expansion = 0

	for scanner.Scan() {
		text := scanner.Text()
		lineno += 1

		if asm.Verbose {
			log.Printf("%v: %v\n", lineno, text)
		}

		line = strings.TrimSpace(stripComment(text))
		words := fields(line)

		// .macro NAME arg...
		if len(words) > 0 && words[0] == ".macro" {
			if macro != nil {
				err = ErrMacroNesting
				return
			}
			if len(words) < 2 {
				err = ErrMacroSyntax
				return
			}
			_, ok := asm.Macro[words[1]]
			if ok {
				err = ErrMacroDuplicate
				return
			}
			macro = &Macro{
				LineNo: lineno + 1,
			}
			if len(words) > 2 {
				macro.Args = words[2:]
			}
			asm.Macro[words[1]] = macro
			continue
		}

		if len(words) > 0 && words[0] == ".endm" {
			if macro == nil {
				err = ErrMacroLonelyEndm
				return
			}
			macro = nil
			continue
		}

		if macro != nil {
			macro.Lines = append(macro.Lines, line)
			continue
		}

		words, err = asm.parseLine(line, lineno)
		if err != nil {
			return
		}

		err = asm.parseWords(words, lineno)
		if err != nil {
			return
		}
	}

	err = scanner.Err()
	if err != nil {
		return
	}

	if macro != nil {
		err = ErrMacroLonely
		return
	}

	// Final linking of labels, and encoding.
	for n := range asm.Opcode {
		op := &asm.Opcode[n]

		lineno = op.LineNo
		line = strings.Join(op.Words, " ")

		err = asm.link(op)
		if err != nil {
			return
		}
	}

	prog = &Program{
		Base:    asm.Origin,
		Opcodes: append([]Opcode(nil), asm.Opcode...),
		Labels:  maps.Clone(asm.Label),
	}

	return
}

// link resolves the label references of op, and encodes its instructions.
func (asm *Assembler) link(op *Opcode) (err error) {
	for _, link := range op.Links {
		target, ok := asm.Label[link.Label]
		if !ok {
			err = ErrLabelMissing(link.Label)
			return
		}

		code := &op.Codes[link.Index]
		pc := op.Pc + uint32(4*link.Index)

		switch link.Kind {
		case LINK_PCREL:
			code.Imm = int32(target - pc)
		case LINK_PCREL_HI:
			code.Imm = int32(hi20(target-pc) << 12)
		case LINK_PCREL_LO:
			code.Imm = lo12(target - (pc - 4))
		case LINK_ABSOLUTE:
			code.Raw = target
		}
	}

	for n := range op.Codes {
		code := &op.Codes[n]
		if code.Op == isa.OP_INVALID {
			continue
		}
		code.Raw, err = code.Encode()
		if err != nil {
			return
		}
	}

	return
}

// wantArgs checks the operand count.
func wantArgs(args []string, count int) (err error) {
	switch {
	case len(args) < count:
		err = ErrOpcodeValueMissing
	case len(args) > count:
		err = ErrOpcodeExtraArgs
	}
	return
}

// fenceSet parses a FENCE predecessor or successor set such as "rw".
func fenceSet(word string) (set int32, err error) {
	for _, r := range strings.ToLower(word) {
		switch r {
		case 'i':
			set |= 0b1000
		case 'o':
			set |= 0b0100
		case 'r':
			set |= 0b0010
		case 'w':
			set |= 0b0001
		default:
			err = ErrParseNumber(word)
			return
		}
	}
	return
}

// instruction assembles a single base instruction. If the operand is a
// label, it is returned for linking.
func (asm *Assembler) instruction(mnemonic string, args []string) (code isa.Instruction, label string, err error) {
	op, ok := isa.ParseOp(mnemonic)
	if !ok {
		err = ErrInstructionInvalid
		return
	}

	code.Op = op

	switch {
	case op == isa.OP_ECALL, op == isa.OP_EBREAK, op == isa.OP_FENCE_I:
		err = wantArgs(args, 0)
	case op == isa.OP_FENCE:
		if len(args) == 0 {
			code.Imm = 0b1111_1111
			return
		}
		if err = wantArgs(args, 2); err != nil {
			return
		}
		var pred, succ int32
		if pred, err = fenceSet(args[0]); err != nil {
			return
		}
		if succ, err = fenceSet(args[1]); err != nil {
			return
		}
		code.Imm = pred<<4 | succ
	case op == isa.OP_LUI, op == isa.OP_AUIPC:
		if err = wantArgs(args, 2); err != nil {
			return
		}
		if code.Rd, err = asm.register(args[0]); err != nil {
			return
		}
		var value uint32
		if value, err = asm.valueOf(args[1]); err != nil {
			return
		}
		if value > 0xfffff {
			err = isa.ErrEncodeRange
			return
		}
		code.Imm = int32(value << 12)
	case op == isa.OP_JAL:
		code.Rd = isa.REG_RA
		if len(args) == 2 {
			if code.Rd, err = asm.register(args[0]); err != nil {
				return
			}
			args = args[1:]
		}
		if err = wantArgs(args, 1); err != nil {
			return
		}
		code.Imm, label, err = asm.target(args[0])
	case op == isa.OP_JALR:
		switch len(args) {
		case 1:
			code.Rd = isa.REG_RA
			code.Rs1, err = asm.register(args[0])
		case 2:
			if code.Rd, err = asm.register(args[0]); err != nil {
				return
			}
			code.Imm, code.Rs1, err = asm.address(args[1])
		default:
			if err = wantArgs(args, 3); err != nil {
				return
			}
			if code.Rd, err = asm.register(args[0]); err != nil {
				return
			}
			if code.Rs1, err = asm.register(args[1]); err != nil {
				return
			}
			var value uint32
			value, err = asm.valueOf(args[2])
			code.Imm = int32(value)
		}
	case op.IsBranch():
		if err = wantArgs(args, 3); err != nil {
			return
		}
		if code.Rs1, err = asm.register(args[0]); err != nil {
			return
		}
		if code.Rs2, err = asm.register(args[1]); err != nil {
			return
		}
		code.Imm, label, err = asm.target(args[2])
	case op.IsLoad():
		if err = wantArgs(args, 2); err != nil {
			return
		}
		if code.Rd, err = asm.register(args[0]); err != nil {
			return
		}
		code.Imm, code.Rs1, err = asm.address(args[1])
	case op.IsStore():
		if err = wantArgs(args, 2); err != nil {
			return
		}
		if code.Rs2, err = asm.register(args[0]); err != nil {
			return
		}
		code.Imm, code.Rs1, err = asm.address(args[1])
	case op.Format() == isa.FORMAT_R:
		if err = wantArgs(args, 3); err != nil {
			return
		}
		if code.Rd, err = asm.register(args[0]); err != nil {
			return
		}
		if code.Rs1, err = asm.register(args[1]); err != nil {
			return
		}
		code.Rs2, err = asm.register(args[2])
	default:
		if err = wantArgs(args, 3); err != nil {
			return
		}
		if code.Rd, err = asm.register(args[0]); err != nil {
			return
		}
		if code.Rs1, err = asm.register(args[1]); err != nil {
			return
		}
		var value uint32
		value, err = asm.valueOf(args[2])
		code.Imm = int32(value)
	}

	return
}

// parseWords evaluates the words in a line of assembly text.
func (asm *Assembler) parseWords(words []string, lineno int) (err error) {
	var codes []isa.Instruction
	var links []Link

	// no-op
	if len(words) == 0 {
		return
	}

	initial_words := words
	pc := asm.pc

	defer func() {
		if err != nil || len(codes) == 0 {
			return
		}
		opcode := Opcode{LineNo: lineno, Pc: pc, Words: initial_words, Codes: codes, Links: links}
		asm.Opcode = append(asm.Opcode, opcode)
		asm.pc = pc + uint32(4*len(codes))
	}()

	emit := func(mnemonic string, args ...string) (err error) {
		code, label, err := asm.instruction(mnemonic, args)
		if err != nil {
			return
		}
		if len(label) != 0 {
			links = append(links, Link{Index: len(codes), Label: label, Kind: LINK_PCREL})
		}
		codes = append(codes, code)
		return
	}

	mnemonic := strings.ToLower(words[0])
	args := words[1:]

	switch mnemonic {
	case ".word":
		if len(args) == 0 {
			err = ErrOpcodeValueMissing
			return
		}
		for _, arg := range args {
			value, verr := asm.valueOf(arg)
			if verr != nil {
				if !labelRe.MatchString(arg) {
					err = verr
					return
				}
				links = append(links, Link{Index: len(codes), Label: arg, Kind: LINK_ABSOLUTE})
			}
			codes = append(codes, isa.Instruction{Raw: value})
		}
	case ".org":
		if err = wantArgs(args, 1); err != nil {
			return
		}
		var value uint32
		if value, err = asm.valueOf(args[0]); err != nil {
			return
		}
		if value%4 != 0 {
			err = ErrOrgSyntax
			return
		}
		if value < asm.pc {
			err = ErrOrgBackwards
			return
		}
		asm.pc = value
	case "li":
		if err = wantArgs(args, 2); err != nil {
			return
		}
		var value uint32
		if value, err = asm.valueOf(args[1]); err != nil {
			return
		}
		imm := int32(value)
		if imm >= -2048 && imm < 2048 {
			err = emit("addi", args[0], "zero", fmt.Sprint(imm))
			return
		}
		if err = emit("lui", args[0], fmt.Sprintf("%#x", hi20(value))); err != nil {
			return
		}
		if lo := lo12(value); lo != 0 {
			err = emit("addi", args[0], args[0], fmt.Sprint(lo))
		}
	case "la":
		if err = wantArgs(args, 2); err != nil {
			return
		}
		if _, verr := asm.valueOf(args[1]); verr == nil {
			err = asm.parseWords(append([]string{"li"}, args...), lineno)
			return
		}
		if !labelRe.MatchString(args[1]) {
			err = ErrLabelMissing(args[1])
			return
		}
		if err = emit("auipc", args[0], "0"); err != nil {
			return
		}
		if err = emit("addi", args[0], args[0], "0"); err != nil {
			return
		}
		links = append(links,
			Link{Index: 0, Label: args[1], Kind: LINK_PCREL_HI},
			Link{Index: 1, Label: args[1], Kind: LINK_PCREL_LO},
		)
	default:
		if pseudo, ok := pseudoOps[mnemonic]; ok {
			var expanded []string
			if expanded, err = pseudo.expand(args); err != nil {
				return
			}
			err = emit(expanded[0], expanded[1:]...)
			return
		}
		err = emit(mnemonic, args...)
	}

	return
}
