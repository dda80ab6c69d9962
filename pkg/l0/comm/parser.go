package comm

// Parser splits a request buffer into commands. Operands alias the
// buffer, so commands are only valid as long as the buffer is.
type Parser struct {
	buf []byte
	pos int

	// Skipped counts unknown opcode bytes passed over.
	Skipped int
	// Dropped counts bytes of a trailing command cut off by the end of
	// the buffer.
	Dropped int
}

// NewParser creates a Parser over buf.
func NewParser(buf []byte) *Parser {
	return &Parser{buf: buf}
}

// Next returns the next complete command. It returns false when the
// buffer is consumed.
func (p *Parser) Next() (Command, bool) {
	for p.pos < len(p.buf) {
		op := Opcode(p.buf[p.pos])
		operandLen, ok := op.OperandLen()
		if !ok {
			p.pos++
			p.Skipped++
			continue
		}
		end := p.pos + 1 + operandLen
		if end > len(p.buf) {
			p.Dropped += len(p.buf) - p.pos
			p.pos = len(p.buf)
			break
		}
		cmd := Command{Op: op}
		if operandLen > 0 {
			cmd.Operand = p.buf[p.pos+1 : end : end]
		}
		p.pos = end
		return cmd, true
	}
	return Command{}, false
}

// Remaining returns the number of bytes not yet consumed.
func (p *Parser) Remaining() int {
	return len(p.buf) - p.pos
}

// ParseAll parses every complete command in buf.
func ParseAll(buf []byte) (cmds []Command) {
	p := NewParser(buf)
	for {
		cmd, ok := p.Next()
		if !ok {
			return
		}
		cmds = append(cmds, cmd)
	}
}
