package fixscan_test

import (
	"fmt"

	"github.com/rawbytedev/fixscan"
)

func Example() {
	msg := []byte("8=FIX.4.4\x019=5\x0135=0\x0110=163\x01")
	p := fixscan.NewParser(fixscan.Options{})

	ok, err := p.Parse(msg)
	if err != nil {
		panic(err)
	}
	msgType, _ := p.GetString(msg, 35)
	bodyLen, _ := p.GetInt(msg, 9)
	fmt.Println(ok, msgType, bodyLen)
	// Output: true 0 5
}

func ExampleParser_Register() {
	msg := []byte("8=FIX.4.4\x0135=0\x0110=247\x01")
	p := fixscan.NewParser(fixscan.Options{SkipChecksum: true})
	p.Register(fixscan.ValidatorFunc(func(data []byte, p *fixscan.Parser) bool {
		v, err := p.GetString(data, 8)
		return err == nil && v == "FIX.4.4"
	}))

	ok, _ := p.Parse(msg)
	fmt.Println(ok)
	// Output: true
}
