package main

// add is a pure helper.
func add(a, b int) int {
	return a + b
}

func bump(p *int) {
	*p = *p + 1
}

func main() {
	x := 0
	bump(&x)
	println(add(x, 2))
}
