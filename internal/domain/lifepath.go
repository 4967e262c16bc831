package domain

// LifePath sums every digit of the date and reduces the total to a single
// digit. Master numbers 11, 22 and 33 are kept as they are.
func LifePath(year, month, day int) int {
	total := digitSum(year) + digitSum(month) + digitSum(day)
	for total > 9 && !isMasterNumber(total) {
		total = digitSum(total)
	}
	return total
}

func digitSum(n int) int {
	if n < 0 {
		n = -n
	}
	sum := 0
	for n > 0 {
		sum += n % 10
		n /= 10
	}
	return sum
}

func isMasterNumber(n int) bool {
	return n == 11 || n == 22 || n == 33
}
