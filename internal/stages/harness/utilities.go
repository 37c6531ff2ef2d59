package harness

import "github.com/codevault/worker/internal/stages/wrapper"

const parseArraySource = `static int[] parseArray(String input) {
    if (input == null || input.trim().isEmpty()) return new int[0];
    input = input.trim().replaceAll("[\\[\\]\\s]", "");
    if (input.isEmpty()) return new int[0];
    String[] parts = input.split(",");
    int[] result = new int[parts.length];
    for (int i = 0; i < parts.length; i++) {
        result[i] = Integer.parseInt(parts[i].trim());
    }
    return result;
}`

const buildListSource = `static ListNode buildList(int[] arr) {
    ListNode dummy = new ListNode(0);
    ListNode tail = dummy;
    for (int value : arr) {
        tail.next = new ListNode(value);
        tail = tail.next;
    }
    return dummy.next;
}`

const linkedListToArraySource = `static int[] linkedListToArray(ListNode head) {
    List<Integer> values = new ArrayList<>();
    for (ListNode current = head; current != null; current = current.next) {
        values.add(current.val);
    }
    int[] arr = new int[values.size()];
    for (int i = 0; i < arr.length; i++) {
        arr[i] = values.get(i);
    }
    return arr;
}`

const formatArraySource = `static String formatArray(int[] arr) {
    if (arr == null || arr.length == 0) return "[]";
    StringBuilder sb = new StringBuilder("[");
    for (int i = 0; i < arr.length; i++) {
        if (i > 0) sb.append(",");
        sb.append(arr[i]);
    }
    return sb.append("]").toString();
}`

const renderSource = `static String render(Object value) {
    if (value instanceof ListNode) return formatArray(linkedListToArray((ListNode) value));
    if (value instanceof int[]) return formatArray((int[]) value);
    if (value instanceof int[][]) {
        int[][] rows = (int[][]) value;
        StringBuilder sb = new StringBuilder("[");
        for (int i = 0; i < rows.length; i++) {
            if (i > 0) sb.append(",");
            sb.append(formatArray(rows[i]));
        }
        return sb.append("]").toString();
    }
    if (value instanceof Collection) {
        StringBuilder sb = new StringBuilder("[");
        boolean first = true;
        for (Object item : (Collection<?>) value) {
            if (!first) sb.append(",");
            sb.append(render(item));
            first = false;
        }
        return sb.append("]").toString();
    }
    return String.valueOf(value);
}`

func utilityDeclarations() []wrapper.Declaration {
	return []wrapper.Declaration{
		{Comment: "Parses a bracketed, comma separated integer list", Source: parseArraySource},
		{Comment: "Links the values of arr in order", Source: buildListSource},
		{Comment: "Collects linked list values in order", Source: linkedListToArraySource},
		{Comment: "Inverse of parseArray", Source: formatArraySource},
		{Comment: "Formats any solution result in the array convention", Source: renderSource},
	}
}
