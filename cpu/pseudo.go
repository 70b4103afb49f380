package cpu

import (
	"strings"
)

// pseudoOp rewrites a pseudo-instruction into a single base instruction.
// Template words "$0".."$2" are replaced by the operands.
type pseudoOp struct {
	args     int
	template []string
}

var pseudoOps = map[string]pseudoOp{
	"nop":  {0, []string{"addi", "zero", "zero", "0"}},
	"ret":  {0, []string{"jalr", "zero", "ra", "0"}},
	"j":    {1, []string{"jal", "zero", "$0"}},
	"jr":   {1, []string{"jalr", "zero", "$0", "0"}},
	"call": {1, []string{"jal", "ra", "$0"}},
	"mv":   {2, []string{"addi", "$0", "$1", "0"}},
	"not":  {2, []string{"xori", "$0", "$1", "-1"}},
	"neg":  {2, []string{"sub", "$0", "zero", "$1"}},
	"seqz": {2, []string{"sltiu", "$0", "$1", "1"}},
	"snez": {2, []string{"sltu", "$0", "zero", "$1"}},
	"beqz": {2, []string{"beq", "$0", "zero", "$1"}},
	"bnez": {2, []string{"bne", "$0", "zero", "$1"}},
	"bgt":  {3, []string{"blt", "$1", "$0", "$2"}},
	"ble":  {3, []string{"bge", "$1", "$0", "$2"}},
	"bgtu": {3, []string{"bltu", "$1", "$0", "$2"}},
	"bleu": {3, []string{"bgeu", "$1", "$0", "$2"}},
}

// expand substitutes args into the template.
func (pseudo pseudoOp) expand(args []string) (words []string, err error) {
	if err = wantArgs(args, pseudo.args); err != nil {
		return
	}

	words = make([]string, len(pseudo.template))
	for n, word := range pseudo.template {
		if index, ok := strings.CutPrefix(word, "$"); ok {
			word = args[int(index[0]-'0')]
		}
		words[n] = word
	}

	return
}
