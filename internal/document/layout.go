package document

// SnakeWidth is the row width of the snake fragment view.
const SnakeWidth = 3

// SnakeRows groups items into rows of at most width, reversing every second
// row so the sequence reads like a snake. The input slice is not modified.
func SnakeRows[T any](items []T, width int) [][]T {
	if width < 1 {
		width = 1
	}
	rows := make([][]T, 0, (len(items)+width-1)/width)
	leftToRight := true
	for start := 0; start < len(items); start += width {
		end := min(start+width, len(items))
		row := make([]T, 0, end-start)
		if leftToRight {
			row = append(row, items[start:end]...)
		} else {
			for i := end - 1; i >= start; i-- {
				row = append(row, items[i])
			}
		}
		rows = append(rows, row)
		leftToRight = !leftToRight
	}
	return rows
}

// GridRows groups items into rows of at most width in reading order.
func GridRows[T any](items []T, width int) [][]T {
	if width < 1 {
		width = 1
	}
	rows := make([][]T, 0, (len(items)+width-1)/width)
	for start := 0; start < len(items); start += width {
		end := min(start+width, len(items))
		rows = append(rows, append([]T(nil), items[start:end]...))
	}
	return rows
}
