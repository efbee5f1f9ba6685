package main

func helper() int {
	return 1
}

func fromA() int {
	return helper()
}

func fromB() int {
	return helper() + helper()
}

func lonely() int {
	return 0
}

func main() {
	println(fromA() + fromB() + lonely())
}
