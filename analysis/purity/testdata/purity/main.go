package main

var counter int

// @pure
func add(a, b int) int {
	return a + b
}

// @pure
func double(n int) int {
	return add(n, n)
}

// @pure
func fib(n int) int {
	if n < 2 {
		return n
	}
	return fib(n-1) + fib(n-2)
}

// @pure
func isEven(n int) bool {
	if n == 0 {
		return true
	}
	return isOdd(n - 1)
}

// @pure
func isOdd(n int) bool {
	if n == 0 {
		return false
	}
	return isEven(n - 1)
}

// @pure
func sumLocal(n int) int {
	xs := make([]int, n)
	for i := range xs {
		xs[i] = i
	}
	total := 0
	for _, x := range xs {
		total += x
	}
	return total
}

// @impure
func bump() int {
	counter++
	return counter
}

// @impure
func callsBump() int {
	return bump() + 1
}

// @impure
func storesThrough(p *int) {
	*p = 42
}

// @impure
func dynamic(f func() int) int {
	return f()
}

// @impure
func spawns() {
	go bump()
}

// @impure
func sends(c chan int) {
	c <- 1
}

// @impure
func prints(x int) {
	println(x)
}

func main() {
	c := make(chan int, 1)
	prints(double(2) + fib(10) + sumLocal(5) + callsBump() + dynamic(bump))
	sends(c)
	spawns()
	x := 0
	storesThrough(&x)
	_ = isEven(x)
}
